package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/testispark/testispark/internal/model"
)

// testimonialColumns is the column list used for SELECT statements on the testimonials table.
const testimonialColumns = `id, form_id, user_id, author_name, author_email, author_title,
	author_avatar_url, author_company, content, rating, video_url, ai_summary, ai_tags,
	status, is_featured, created_at`

// widgetColumns is the column list used for SELECT statements on the widgets table.
const widgetColumns = `id, user_id, name, type, config, testimonial_ids, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateTestimonial(ctx context.Context, db executor, t *model.Testimonial) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO testimonials (
			id, form_id, user_id, author_name, author_email, author_title,
			author_avatar_url, author_company, content, rating, video_url, ai_summary, ai_tags,
			status, is_featured, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16
		)`,
		t.ID,
		nullString(t.FormID),
		t.UserID,
		t.AuthorName,
		nullString(t.AuthorEmail),
		nullString(t.AuthorTitle),
		nullString(t.AuthorAvatarURL),
		nullString(t.AuthorCompany),
		t.Content,
		nullIntPtr(t.Rating),
		nullString(t.VideoURL),
		nullString(t.AISummary),
		pq.Array(t.AITags),
		string(t.Status),
		t.IsFeatured,
		t.CreatedAt,
	)
	return err
}

func queryGetTestimonial(ctx context.Context, db executor, id string) (*model.Testimonial, error) {
	row := db.QueryRowContext(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id)
	return scanTestimonial(row)
}

func queryListTestimonials(ctx context.Context, db executor, filter model.TestimonialFilter) ([]*model.Testimonial, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.UserID != "" {
		whereClauses = append(whereClauses, "user_id = "+nextArg())
		args = append(args, filter.UserID)
	}

	if filter.FormID != "" {
		whereClauses = append(whereClauses, "form_id = "+nextArg())
		args = append(args, filter.FormID)
	}

	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = "+nextArg())
		args = append(args, string(filter.Status))
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			"(author_name ILIKE "+p+" OR content ILIKE "+p+" OR author_email ILIKE "+p+")")
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := `SELECT ` + testimonialColumns + ` FROM testimonials`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()
	return scanTestimonials(rows)
}

func queryCountTestimonials(ctx context.Context, db executor, userID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM testimonials WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count testimonials: %w", err)
	}
	return n, nil
}

func queryUpdateTestimonial(ctx context.Context, db executor, id string, patch model.TestimonialPatch) (*model.Testimonial, error) {
	var (
		sets   []string
		args   []any
		argIdx int
	)
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if patch.Status != nil {
		sets = append(sets, "status = "+nextArg())
		args = append(args, string(*patch.Status))
	}
	if patch.IsFeatured != nil {
		sets = append(sets, "is_featured = "+nextArg())
		args = append(args, *patch.IsFeatured)
	}
	if len(sets) == 0 {
		return queryGetTestimonial(ctx, db, id)
	}

	query := `UPDATE testimonials SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + nextArg() + ` RETURNING ` + testimonialColumns
	args = append(args, id)
	return scanTestimonial(db.QueryRowContext(ctx, query, args...))
}

func queryUpdateSummary(ctx context.Context, db executor, id, summary string, tags []string) (*model.Testimonial, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE testimonials SET ai_summary = $1, ai_tags = $2
		WHERE id = $3
		RETURNING `+testimonialColumns,
		nullString(summary), pq.Array(tags), id)
	return scanTestimonial(row)
}

func queryDeleteTestimonial(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return requireAffected(res)
}

func queryListApprovedTestimonials(ctx context.Context, db executor, ids []string) ([]*model.Testimonial, error) {
	if len(ids) == 0 {
		return []*model.Testimonial{}, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+testimonialColumns+` FROM testimonials
		WHERE id = ANY($1) AND status = 'approved'
		ORDER BY array_position($1, id)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list approved testimonials: %w", err)
	}
	defer rows.Close()
	return scanTestimonials(rows)
}

func queryListWallTestimonials(ctx context.Context, db executor, formID string) ([]*model.Testimonial, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+testimonialColumns+` FROM testimonials
		WHERE form_id = $1 AND status = 'approved'
		ORDER BY is_featured DESC, created_at DESC`,
		formID)
	if err != nil {
		return nil, fmt.Errorf("list wall testimonials: %w", err)
	}
	defer rows.Close()
	return scanTestimonials(rows)
}

func queryCreateWidget(ctx context.Context, db executor, w *model.Widget) error {
	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("marshal widget config: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO widgets (id, user_id, name, type, config, testimonial_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.UserID, w.Name, string(w.Type), cfg, pq.Array(w.TestimonialIDs), w.CreatedAt,
	)
	return err
}

func queryGetWidget(ctx context.Context, db executor, id string) (*model.Widget, error) {
	row := db.QueryRowContext(ctx, `SELECT `+widgetColumns+` FROM widgets WHERE id = $1`, id)
	return scanWidget(row)
}

func queryListWidgets(ctx context.Context, db executor, userID string) ([]*model.Widget, error) {
	query := `SELECT ` + widgetColumns + ` FROM widgets`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()
	return scanWidgets(rows)
}

func queryUpdateWidget(ctx context.Context, db executor, w *model.Widget) error {
	cfg, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("marshal widget config: %w", err)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE widgets SET name = $1, type = $2, config = $3, testimonial_ids = $4
		WHERE id = $5`,
		w.Name, string(w.Type), cfg, pq.Array(w.TestimonialIDs), w.ID,
	)
	if err != nil {
		return fmt.Errorf("update widget: %w", err)
	}
	return requireAffected(res)
}

func queryDeleteWidget(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM widgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete widget: %w", err)
	}
	return requireAffected(res)
}

// requireAffected returns sql.ErrNoRows when a statement matched nothing.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes ILIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
