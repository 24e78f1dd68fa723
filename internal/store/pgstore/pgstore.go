// Package pgstore implements store.Store on PostgreSQL, keeping each list
// and user as a single row with JSONB arrays.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/PepaPanda/uu-backend-project/internal/database"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	db *database.DB
}

var _ store.Store = (*Store)(nil)

func New(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close(context.Context) error {
	s.db.Close()
	return nil
}

// conditionalSQL builds one statement that locks the rows matching cond,
// applies set to them and reports how many matched and how many actually
// changed. cond addresses the table as "s", set addresses it as "t".
func conditionalSQL(table, cond, set string) string {
	return fmt.Sprintf(`
		WITH target AS (
			SELECT s.id, to_jsonb(s) AS before FROM %[1]s s WHERE %[2]s FOR UPDATE
		), updated AS (
			UPDATE %[1]s t SET %[3]s FROM target WHERE t.id = target.id
			RETURNING to_jsonb(t) IS DISTINCT FROM target.before AS changed
		)
		SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM updated WHERE changed)`,
		table, cond, set)
}

func (s *Store) conditionalUpdate(ctx context.Context, table, cond, set string, args ...any) (store.Result, error) {
	res := store.Result{Acknowledged: true}
	err := s.db.QueryRow(ctx, conditionalSQL(table, cond, set), args...).Scan(&res.Matched, &res.Changed)
	if err != nil {
		return store.Result{}, translateErr(err)
	}
	return res, nil
}

func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicate
	}
	return err
}

func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// withoutElem rebuilds a JSONB array keeping the elements whose key differs
// from the given parameter.
func withoutElem(column, key, param string) string {
	return fmt.Sprintf(`COALESCE((SELECT jsonb_agg(e.v ORDER BY e.i) FROM jsonb_array_elements(t.%[1]s) WITH ORDINALITY AS e(v, i) WHERE e.v->>'%[2]s' <> %[3]s), '[]'::jsonb)`,
		column, key, param)
}

// containsElem is the JSONB containment test for an element with key = param.
func containsElem(column, key, param string) string {
	return fmt.Sprintf(`s.%[1]s @> jsonb_build_array(jsonb_build_object('%[2]s', %[3]s::text))`, column, key, param)
}

const listColumns = `id, name, status, owner, members, items, created_at, archived_at`

func scanList(row pgx.Row) (*models.ShoppingList, error) {
	var l models.ShoppingList
	var status string
	err := row.Scan(&l.ID, &l.Name, &status, &l.Owner, &l.Members, &l.Items, &l.CreatedAt, &l.ArchivedAt)
	if err != nil {
		return nil, err
	}
	l.Status = models.ListStatus(status)
	return &l, nil
}

// Lists

func (s *Store) FindListByID(ctx context.Context, id string) (*models.ShoppingList, error) {
	l, err := scanList(s.db.QueryRow(ctx, `SELECT `+listColumns+` FROM shopping_lists WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find list %s: %w", id, err)
	}
	return l, nil
}

func (s *Store) FindListsByMember(ctx context.Context, userID string) ([]*models.ShoppingList, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+listColumns+` FROM shopping_lists s WHERE `+containsElem("members", "user_id", "$1")+` ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("find lists of %s: %w", userID, err)
	}
	defer rows.Close()

	var lists []*models.ShoppingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *Store) InsertList(ctx context.Context, list *models.ShoppingList) (store.Result, error) {
	owner, err := jsonArg(list.Owner)
	if err != nil {
		return store.Result{}, err
	}
	members, err := jsonArg(list.Members)
	if err != nil {
		return store.Result{}, err
	}
	items := "[]"
	if len(list.Items) > 0 {
		if items, err = jsonArg(list.Items); err != nil {
			return store.Result{}, err
		}
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO shopping_lists (id, name, status, owner, members, items, created_at, archived_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7, $8)`,
		list.ID, list.Name, string(list.Status), owner, members, items, list.CreatedAt, list.ArchivedAt)
	if err != nil {
		return store.Result{}, translateErr(err)
	}
	return store.Applied, nil
}

func (s *Store) DeleteList(ctx context.Context, id string) (store.Result, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shopping_lists WHERE id = $1`, id)
	if err != nil {
		return store.Result{}, err
	}
	n := tag.RowsAffected()
	return store.Result{Acknowledged: true, Matched: n, Changed: n}, nil
}

// UpdateListFields derives archived_at from t.status, which in a SET clause
// is the value stored before this statement.
func (s *Store) UpdateListFields(ctx context.Context, id string, upd models.ListFieldsUpdate, now time.Time) (store.Result, error) {
	var status *string
	if upd.Status != nil {
		v := string(*upd.Status)
		status = &v
	}
	return s.conditionalUpdate(ctx, "shopping_lists", `s.id = $1`, `
		name = COALESCE($2::text, t.name),
		status = COALESCE($3::text, t.status),
		archived_at = CASE
			WHEN $3::text = 'archived' AND t.status <> 'archived' THEN $4::timestamptz
			WHEN $3::text = 'active' AND t.status = 'archived' THEN NULL
			ELSE t.archived_at
		END`,
		id, upd.Name, status, now)
}

func (s *Store) AddMember(ctx context.Context, listID string, m models.MemberRef) (store.Result, error) {
	member, err := jsonArg(m)
	if err != nil {
		return store.Result{}, err
	}
	return s.conditionalUpdate(ctx, "shopping_lists",
		`s.id = $1 AND NOT `+containsElem("members", "user_id", "$2"),
		`members = t.members || jsonb_build_array($3::jsonb)`,
		listID, m.UserID, member)
}

func (s *Store) RemoveMember(ctx context.Context, listID, userID string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "shopping_lists",
		`s.id = $1 AND s.owner->>'user_id' <> $2::text`,
		`members = `+withoutElem("members", "user_id", "$2::text"),
		listID, userID)
}

func (s *Store) InsertItem(ctx context.Context, listID string, item models.Item) (store.Result, error) {
	doc, err := jsonArg(item)
	if err != nil {
		return store.Result{}, err
	}
	return s.conditionalUpdate(ctx, "shopping_lists",
		`s.id = $1`,
		`items = t.items || jsonb_build_array($2::jsonb)`,
		listID, doc)
}

func (s *Store) UpdateItem(ctx context.Context, listID, itemID string, upd models.ItemUpdate) (store.Result, error) {
	patch := map[string]any{}
	if upd.Name != nil {
		patch["name"] = *upd.Name
	}
	if upd.Resolved != nil {
		patch["resolved"] = *upd.Resolved
	}
	doc, err := jsonArg(patch)
	if err != nil {
		return store.Result{}, err
	}
	return s.conditionalUpdate(ctx, "shopping_lists",
		`s.id = $1 AND `+containsElem("items", "id", "$2"),
		`items = (SELECT jsonb_agg(CASE WHEN e.v->>'id' = $2::text THEN e.v || $3::jsonb ELSE e.v END ORDER BY e.i)
		          FROM jsonb_array_elements(t.items) WITH ORDINALITY AS e(v, i))`,
		listID, itemID, doc)
}

func (s *Store) DeleteItem(ctx context.Context, listID, itemID string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "shopping_lists",
		`s.id = $1 AND `+containsElem("items", "id", "$2"),
		`items = `+withoutElem("items", "id", "$2::text"),
		listID, itemID)
}

func (s *Store) RenameMember(ctx context.Context, userID, name string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "shopping_lists",
		containsElem("members", "user_id", "$1"),
		`members = (SELECT jsonb_agg(CASE WHEN e.v->>'user_id' = $1::text THEN jsonb_set(e.v, '{name}', to_jsonb($2::text)) ELSE e.v END ORDER BY e.i)
		            FROM jsonb_array_elements(t.members) WITH ORDINALITY AS e(v, i)),
		 owner = CASE WHEN t.owner->>'user_id' = $1::text THEN jsonb_set(t.owner, '{name}', to_jsonb($2::text)) ELSE t.owner END`,
		userID, name)
}

// Users

const userColumns = `id, email, password_hash, first_name, last_name, invitations, created_at`

func (s *Store) findUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Invitations, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, `id = $1`, id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, `email = $1`, email)
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) (store.Result, error) {
	invitations := "[]"
	if len(user.Invitations) > 0 {
		var err error
		if invitations, err = jsonArg(user.Invitations); err != nil {
			return store.Result{}, err
		}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, invitations, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, invitations, user.CreatedAt)
	if err != nil {
		return store.Result{}, translateErr(err)
	}
	return store.Applied, nil
}

func (s *Store) UpdateUserNames(ctx context.Context, id, firstName, lastName string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "users", `s.id = $1`,
		`first_name = $2, last_name = $3`,
		id, firstName, lastName)
}

func (s *Store) AddInvitation(ctx context.Context, email string, inv models.Invitation) (store.Result, error) {
	doc, err := jsonArg(inv)
	if err != nil {
		return store.Result{}, err
	}
	return s.conditionalUpdate(ctx, "users",
		`s.email = $1 AND NOT `+containsElem("invitations", "list_id", "$2"),
		`invitations = t.invitations || jsonb_build_array($3::jsonb)`,
		email, inv.ListID, doc)
}

func (s *Store) RemoveInvitation(ctx context.Context, userID, listID string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "users",
		`s.id = $1 AND `+containsElem("invitations", "list_id", "$2"),
		`invitations = `+withoutElem("invitations", "list_id", "$2::text"),
		userID, listID)
}

func (s *Store) PullInvitationsForList(ctx context.Context, listID string) (store.Result, error) {
	return s.conditionalUpdate(ctx, "users",
		containsElem("invitations", "list_id", "$1"),
		`invitations = `+withoutElem("invitations", "list_id", "$1::text"),
		listID)
}
