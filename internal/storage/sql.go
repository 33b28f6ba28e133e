package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/insiderlife/signalfire/internal/domain"
)

const (
	tableCourses = "courses"
	tableContent = "content"
	tableCTAs    = "ctas"
	tableSeries  = "series"
	tableFunnels = "funnels"
)

type dialect struct {
	name     string
	schema   string
	numbered bool
	isUnique func(error) bool
}

// SQLRepository stores users and referral links in plain columns and catalog
// entities as JSON documents, one table per kind.
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
}

func newSQLRepository(db *sql.DB, d dialect) (*SQLRepository, error) {
	repo := &SQLRepository{db: db, dialect: d}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLRepository) createTables() error {
	if _, err := r.db.Exec(r.dialect.schema); err != nil {
		return fmt.Errorf("create %s schema: %w", r.dialect.name, err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for dialects that need it.
func (r *SQLRepository) rebind(query string) string {
	if !r.dialect.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil && r.dialect.isUnique(err) {
		return nil, ErrConflict
	}
	return res, err
}

const userColumns = `id, email, name, password_hash, role, referral_code, referred_by, profile_json, created_at`

func (r *SQLRepository) CreateUser(ctx context.Context, u *domain.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.exec(ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		u.ReferralCode,
		u.ReferredBy,
		string(profile),
		u.CreatedAt,
	)
	return err
}

func (r *SQLRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET email = ?, name = ?, password_hash = ?, role = ?, referred_by = ?, profile_json = ?
		WHERE id = ?
	`
	res, err := r.exec(ctx, query,
		u.Email,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		u.ReferredBy,
		string(profile),
		u.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *SQLRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.queryUser(ctx, `WHERE id = ?`, id)
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryUser(ctx, `WHERE email = ?`, email)
}

func (r *SQLRepository) queryUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ` + where
	rows, err := r.db.QueryContext(ctx, r.rebind(query), arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

func (r *SQLRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	var users []domain.User

	for rows.Next() {
		var u domain.User
		var role string
		var profile []byte

		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.PasswordHash,
			&role,
			&u.ReferralCode,
			&u.ReferredBy,
			&profile,
			&u.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		u.Role = domain.Role(role)
		if err := json.Unmarshal(profile, &u.Profile); err != nil {
			return nil, fmt.Errorf("decode profile of %s: %w", u.ID, err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (r *SQLRepository) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return listDocs[domain.Course](ctx, r, tableCourses)
}

func (r *SQLRepository) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	return getDoc[domain.Course](ctx, r, tableCourses, id)
}

func (r *SQLRepository) SaveCourse(ctx context.Context, c *domain.Course) error {
	return r.putDoc(ctx, tableCourses, c.ID, c)
}

func (r *SQLRepository) ListContent(ctx context.Context) ([]domain.ContentItem, error) {
	return listDocs[domain.ContentItem](ctx, r, tableContent)
}

func (r *SQLRepository) GetContent(ctx context.Context, id string) (*domain.ContentItem, error) {
	return getDoc[domain.ContentItem](ctx, r, tableContent, id)
}

func (r *SQLRepository) SaveContent(ctx context.Context, c *domain.ContentItem) error {
	return r.putDoc(ctx, tableContent, c.ID, c)
}

func (r *SQLRepository) DeleteContent(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, tableContent, id)
}

func (r *SQLRepository) ListCTAs(ctx context.Context) ([]domain.CTA, error) {
	return listDocs[domain.CTA](ctx, r, tableCTAs)
}

func (r *SQLRepository) GetCTA(ctx context.Context, id string) (*domain.CTA, error) {
	return getDoc[domain.CTA](ctx, r, tableCTAs, id)
}

func (r *SQLRepository) SaveCTA(ctx context.Context, c *domain.CTA) error {
	return r.putDoc(ctx, tableCTAs, c.ID, c)
}

func (r *SQLRepository) ListSeries(ctx context.Context) ([]domain.SignalSeries, error) {
	return listDocs[domain.SignalSeries](ctx, r, tableSeries)
}

func (r *SQLRepository) GetSeries(ctx context.Context, id string) (*domain.SignalSeries, error) {
	return getDoc[domain.SignalSeries](ctx, r, tableSeries, id)
}

func (r *SQLRepository) SaveSeries(ctx context.Context, s *domain.SignalSeries) error {
	return r.putDoc(ctx, tableSeries, s.ID, s)
}

func (r *SQLRepository) DeleteSeries(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, tableSeries, id)
}

func (r *SQLRepository) ListFunnels(ctx context.Context) ([]domain.Funnel, error) {
	return listDocs[domain.Funnel](ctx, r, tableFunnels)
}

func (r *SQLRepository) GetFunnel(ctx context.Context, id string) (*domain.Funnel, error) {
	return getDoc[domain.Funnel](ctx, r, tableFunnels, id)
}

func (r *SQLRepository) SaveFunnel(ctx context.Context, f *domain.Funnel) error {
	return r.putDoc(ctx, tableFunnels, f.ID, f)
}

func (r *SQLRepository) DeleteFunnel(ctx context.Context, id string) error {
	return r.deleteDoc(ctx, tableFunnels, id)
}

func (r *SQLRepository) putDoc(ctx context.Context, table, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + table + ` (id, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	_, err = r.exec(ctx, query, id, string(body), time.Now().UTC())
	return err
}

func (r *SQLRepository) deleteDoc(ctx context.Context, table, id string) error {
	res, err := r.exec(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func getDoc[T any](ctx context.Context, r *SQLRepository, table, id string) (*T, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT body FROM `+table+` WHERE id = ?`), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return &v, nil
}

func listDocs[T any](ctx context.Context, r *SQLRepository, table string) ([]T, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT body FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *SQLRepository) AddActivity(ctx context.Context, a *domain.Activity) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}

	_, err = r.exec(ctx,
		`INSERT INTO activities (id, created_at, body) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		a.ID, a.CreatedAt, string(body),
	)
	return err
}

func (r *SQLRepository) RecentActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	query := `SELECT body FROM activities ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var a domain.Activity
		if err := json.Unmarshal(body, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLRepository) SaveReferralLink(ctx context.Context, l *domain.ReferralLink) error {
	query := `
		INSERT INTO referral_links (code, id, user_id, campaign, destination, visits, signups, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.exec(ctx, query,
		l.Code,
		l.ID,
		l.UserID,
		l.Campaign,
		l.Destination,
		l.Visits,
		l.Signups,
		l.CreatedAt,
	)
	return err
}

const referralColumns = `id, user_id, code, campaign, destination, visits, signups, created_at`

func (r *SQLRepository) GetReferralLink(ctx context.Context, code string) (*domain.ReferralLink, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(`SELECT `+referralColumns+` FROM referral_links WHERE code = ?`), code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links, err := scanReferralLinks(rows)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNotFound
	}
	return &links[0], nil
}

func (r *SQLRepository) ListReferralLinks(ctx context.Context, userID string) ([]domain.ReferralLink, error) {
	query := `SELECT ` + referralColumns + ` FROM referral_links WHERE user_id = ? ORDER BY created_at, code`
	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReferralLinks(rows)
}

func scanReferralLinks(rows *sql.Rows) ([]domain.ReferralLink, error) {
	var links []domain.ReferralLink
	for rows.Next() {
		var l domain.ReferralLink
		err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Code,
			&l.Campaign,
			&l.Destination,
			&l.Visits,
			&l.Signups,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *SQLRepository) IncrementReferral(ctx context.Context, code string, field ReferralCounter) error {
	var column string
	switch field {
	case CounterVisits:
		column = "visits"
	case CounterSignups:
		column = "signups"
	default:
		return fmt.Errorf("unknown referral counter %q", field)
	}

	res, err := r.exec(ctx, `UPDATE referral_links SET `+column+` = `+column+` + 1 WHERE code = ?`, code)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *SQLRepository) Empty(ctx context.Context) (bool, error) {
	query := `SELECT (SELECT COUNT(*) FROM courses) + (SELECT COUNT(*) FROM content) + (SELECT COUNT(*) FROM series)`

	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
