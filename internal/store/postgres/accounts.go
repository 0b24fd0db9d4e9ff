package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

const profileColumns = `id, email, full_name, avatar_url, plan,
	paddle_customer_id, paddle_subscription_id, lemon_customer_id, lemon_subscription_id,
	(SELECT COUNT(*) FROM testimonials t WHERE t.user_id = profiles.id), created_at`

const formColumns = `id, user_id, name, slug, headline, description, questions,
	brand_color, logo_url, thank_you_message, is_active, created_at`

const cryptoPaymentColumns = `id, user_id, tx_hash, chain, amount, currency, wallet_address, status, created_at`

// billingColumns whitelists the columns a billing update may match on.
var billingColumns = map[model.BillingKey]string{
	model.ByUserID:               "id",
	model.ByPaddleCustomerID:     "paddle_customer_id",
	model.ByPaddleSubscriptionID: "paddle_subscription_id",
	model.ByLemonCustomerID:      "lemon_customer_id",
	model.ByLemonSubscriptionID:  "lemon_subscription_id",
}

func queryGetProfile(ctx context.Context, db executor, id string) (*model.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// queryGetProfileForUpdate locks the profile row. The testimonial count in
// profileColumns is read from the statement snapshot taken before the lock
// was granted, so callers that need a current count must query it again.
func queryGetProfileForUpdate(ctx context.Context, db executor, id string) (*model.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id)
	return scanProfile(row)
}

func queryUpsertProfile(ctx context.Context, db executor, p *model.Profile) error {
	plan := p.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url)`,
		p.ID, p.Email, nullString(p.FullName), nullString(p.AvatarURL), string(plan), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func queryApplyBillingUpdate(ctx context.Context, db executor, u model.BillingUpdate) (int64, error) {
	col, ok := billingColumns[u.Key]
	if !ok {
		return 0, fmt.Errorf("billing update: unknown key %q", u.Key)
	}
	if u.IsNoop() {
		return 0, nil
	}

	var (
		sets   []string
		args   []any
		argIdx int
	)
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}
	set := func(column, value string) {
		if value != "" {
			sets = append(sets, column+" = "+nextArg())
			args = append(args, value)
		}
	}

	set("plan", string(u.Plan))
	set("paddle_customer_id", u.PaddleCustomerID)
	set("paddle_subscription_id", u.PaddleSubscriptionID)
	set("lemon_customer_id", u.LemonCustomerID)
	set("lemon_subscription_id", u.LemonSubscriptionID)

	query := `UPDATE profiles SET ` + strings.Join(sets, ", ") + ` WHERE ` + col + ` = ` + nextArg()
	args = append(args, u.Value)

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("billing update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryCreateForm(ctx context.Context, db executor, f *model.Form) error {
	questions, err := json.Marshal(f.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO forms (
			id, user_id, name, slug, headline, description, questions,
			brand_color, logo_url, thank_you_message, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID,
		f.UserID,
		f.Name,
		f.Slug,
		nullString(f.Headline),
		nullString(f.Description),
		questions,
		f.BrandColor,
		nullString(f.LogoURL),
		nullString(f.ThankYouMessage),
		f.IsActive,
		f.CreatedAt,
	)
	return uniqueViolation(err)
}

func queryGetForm(ctx context.Context, db executor, id string) (*model.Form, error) {
	row := db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE id = $1`, id)
	return scanForm(row)
}

func queryGetFormBySlug(ctx context.Context, db executor, slug string) (*model.Form, error) {
	row := db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM forms WHERE slug = $1`, slug)
	return scanForm(row)
}

func queryListForms(ctx context.Context, db executor, userID string) ([]*model.Form, error) {
	query := `SELECT ` + formColumns + `,
		(SELECT COUNT(*) FROM testimonials t WHERE t.form_id = forms.id)
		FROM forms`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	forms := []*model.Form{}
	for rows.Next() {
		f, err := scanFormWithCount(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return forms, nil
}

func queryCreateCryptoPayment(ctx context.Context, db executor, p *model.CryptoPayment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO crypto_payments (`+cryptoPaymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.TxHash, p.Chain, p.Amount, p.Currency, p.WalletAddress, string(p.Status), p.CreatedAt,
	)
	return uniqueViolation(err)
}

// uniqueViolation maps a Postgres unique_violation to store.ErrConflict.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pqErr.Constraint, store.ErrConflict)
	}
	return err
}

func queryGetCryptoPaymentByTxHash(ctx context.Context, db executor, txHash string) (*model.CryptoPayment, error) {
	var p model.CryptoPayment
	err := db.QueryRowContext(ctx, `SELECT `+cryptoPaymentColumns+` FROM crypto_payments WHERE tx_hash = $1`, txHash).
		Scan(&p.ID, &p.UserID, &p.TxHash, &p.Chain, &p.Amount, &p.Currency, &p.WalletAddress, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
