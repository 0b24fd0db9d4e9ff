package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/testispark/testispark/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTestimonial scans a single row into a model.Testimonial.
// The row must contain columns in the order defined by testimonialColumns.
func scanTestimonial(row scannable) (*model.Testimonial, error) {
	var t model.Testimonial
	var (
		formID    sql.NullString
		email     sql.NullString
		title     sql.NullString
		avatarURL sql.NullString
		company   sql.NullString
		rating    sql.NullInt64
		videoURL  sql.NullString
		summary   sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&formID,
		&t.UserID,
		&t.AuthorName,
		&email,
		&title,
		&avatarURL,
		&company,
		&t.Content,
		&rating,
		&videoURL,
		&summary,
		pq.Array(&t.AITags),
		&t.Status,
		&t.IsFeatured,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.FormID = formID.String
	t.AuthorEmail = email.String
	t.AuthorTitle = title.String
	t.AuthorAvatarURL = avatarURL.String
	t.AuthorCompany = company.String
	t.VideoURL = videoURL.String
	t.AISummary = summary.String
	if rating.Valid {
		r := int(rating.Int64)
		t.Rating = &r
	}

	return &t, nil
}

// scanTestimonials scans multiple rows into a slice of model.Testimonial pointers.
func scanTestimonials(rows *sql.Rows) ([]*model.Testimonial, error) {
	ts := []*model.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ts, nil
}

// scanWidget scans a single row into a model.Widget.
func scanWidget(row scannable) (*model.Widget, error) {
	var w model.Widget
	var cfg []byte

	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &cfg, pq.Array(&w.TestimonialIDs), &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &w.Config); err != nil {
			return nil, fmt.Errorf("decode widget config: %w", err)
		}
	}
	if w.TestimonialIDs == nil {
		w.TestimonialIDs = []string{}
	}
	return &w, nil
}

// scanWidgets scans multiple rows into a slice of model.Widget pointers.
func scanWidgets(rows *sql.Rows) ([]*model.Widget, error) {
	widgets := []*model.Widget{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return widgets, nil
}

// scanProfile scans a single row into a model.Profile.
// The row must contain columns in the order defined by profileColumns.
func scanProfile(row scannable) (*model.Profile, error) {
	var p model.Profile
	var (
		fullName   sql.NullString
		avatarURL  sql.NullString
		paddleCust sql.NullString
		paddleSub  sql.NullString
		lemonCust  sql.NullString
		lemonSub   sql.NullString
	)

	err := row.Scan(
		&p.ID,
		&p.Email,
		&fullName,
		&avatarURL,
		&p.Plan,
		&paddleCust,
		&paddleSub,
		&lemonCust,
		&lemonSub,
		&p.TestimonialCount,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.FullName = fullName.String
	p.AvatarURL = avatarURL.String
	p.PaddleCustomerID = paddleCust.String
	p.PaddleSubscriptionID = paddleSub.String
	p.LemonCustomerID = lemonCust.String
	p.LemonSubscriptionID = lemonSub.String
	return &p, nil
}

func scanForm(row scannable) (*model.Form, error) {
	return scanFormInto(row)
}

// scanFormWithCount scans a form row followed by a trailing testimonial count.
func scanFormWithCount(row scannable) (*model.Form, error) {
	var count int
	f, err := scanFormInto(row, &count)
	if err != nil {
		return nil, err
	}
	f.TestimonialCount = count
	return f, nil
}

func scanFormInto(row scannable, extra ...any) (*model.Form, error) {
	var f model.Form
	var (
		headline    sql.NullString
		description sql.NullString
		questions   []byte
		logoURL     sql.NullString
		thankYou    sql.NullString
	)

	dest := []any{
		&f.ID,
		&f.UserID,
		&f.Name,
		&f.Slug,
		&headline,
		&description,
		&questions,
		&f.BrandColor,
		&logoURL,
		&thankYou,
		&f.IsActive,
		&f.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	f.Headline = headline.String
	f.Description = description.String
	f.LogoURL = logoURL.String
	f.ThankYouMessage = thankYou.String
	f.Questions = []model.Question{}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &f.Questions); err != nil {
			return nil, fmt.Errorf("decode form questions: %w", err)
		}
	}
	return &f, nil
}

// nullIntPtr converts an *int to a sql.NullInt64.
func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
