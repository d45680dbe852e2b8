package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/playshelf/internal/domain"
)

const (
	tableItems       = "items"
	tableGroups      = "item_groups"
	tableMemberships = "group_items"
)

var itemColumns = []string{
	"id", "title", "target", "args", "origin",
	"cover", "banner", "logo", "hero",
	"last_played", "installed_at",
}

// CatalogRepo implements domain.CatalogRepository
type CatalogRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(log zerolog.Logger, db *DB) *CatalogRepo {
	return &CatalogRepo{
		log: log.With().Str("repo", "catalog").Logger(),
		db:  db,
	}
}

var _ domain.CatalogRepository = (*CatalogRepo)(nil)

// Load returns every group in display order with its items in membership order
func (r *CatalogRepo) Load(ctx context.Context) ([]domain.Group, error) {
	query, args, err := r.db.squirrel.
		Select("id", "name", "icon", "settings").
		From(tableGroups).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Load groups")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	groups := []domain.Group{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			g        domain.Group
			settings sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Icon, &settings); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		if settings.Valid && settings.String != "" {
			g.Settings = []byte(settings.String)
		}
		g.Items = []domain.Item{}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	cols := make([]string, 0, len(itemColumns)+1)
	cols = append(cols, "m.group_id")
	for _, c := range itemColumns {
		cols = append(cols, "i."+c)
	}

	query, args, err = r.db.squirrel.
		Select(cols...).
		From(tableMemberships+" m").
		Join(tableItems+" i ON i.id = m.item_id").
		OrderBy("m.group_id", "m.position").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Load memberships")

	memberRows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var groupID string
		item, err := scanItem(memberRows, &groupID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[groupID]; ok {
			groups[i].Items = append(groups[i].Items, item)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return groups, nil
}

// ReplaceAll atomically swaps the whole catalog for groups. Items appearing in
// several groups are written once; group order defines display order.
func (r *CatalogRepo) ReplaceAll(ctx context.Context, groups []domain.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearCatalog(ctx, tx); err != nil {
		return err
	}

	for gi, g := range groups {
		var settings any
		if len(g.Settings) > 0 {
			settings = string(g.Settings)
		}

		if _, err := tx.exec(ctx, r.db.squirrel.
			Insert(tableGroups).
			Columns("id", "name", "icon", "settings", "position").
			Values(g.ID, g.Name, g.Icon, settings, gi)); err != nil {
			return errors.Wrapf(err, "failed to insert group %s", g.ID)
		}

		for ii, item := range g.Items {
			if _, err := tx.exec(ctx, r.db.squirrel.
				Insert(tableItems).
				Options("OR IGNORE").
				Columns(itemColumns...).
				Values(itemValues(item)...)); err != nil {
				return errors.Wrapf(err, "failed to insert item %s", item.ID)
			}

			if _, err := tx.exec(ctx, r.db.squirrel.
				Insert(tableMemberships).
				Options("OR IGNORE").
				Columns("group_id", "item_id", "position").
				Values(g.ID, item.ID, ii)); err != nil {
				return errors.Wrapf(err, "failed to insert membership %s/%s", g.ID, item.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit catalog replace")
	}

	r.log.Debug().Int("groups", len(groups)).Msg("catalog replaced")
	return nil
}

// DeleteItem deletes an item; its membership rows cascade
func (r *CatalogRepo) DeleteItem(ctx context.Context, id string) error {
	query, args, err := r.db.squirrel.
		Delete(tableItems).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("DeleteItem")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing delete query")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(domain.ErrItemNotFound, "delete %s", id)
	}

	return nil
}

// UpdateLastPlayed records a launch of item id
func (r *CatalogRepo) UpdateLastPlayed(ctx context.Context, id string, at time.Time) error {
	query, args, err := r.db.squirrel.
		Update(tableItems).
		Set("last_played", toMillis(at)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpdateLastPlayed")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(domain.ErrItemNotFound, "update %s", id)
	}

	return nil
}

// Wipe removes every item, group and membership
func (r *CatalogRepo) Wipe(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearCatalog(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Counts returns the row count of each catalog table
func (r *CatalogRepo) Counts(ctx context.Context) (domain.CatalogCounts, error) {
	var counts domain.CatalogCounts

	targets := []struct {
		table string
		dest  *int
	}{
		{tableItems, &counts.Items},
		{tableGroups, &counts.Groups},
		{tableMemberships, &counts.Memberships},
	}

	for _, t := range targets {
		query, args, err := r.db.squirrel.Select("COUNT(*)").From(t.table).ToSql()
		if err != nil {
			return counts, errors.Wrap(err, "error building query")
		}
		if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(t.dest); err != nil {
			return counts, errors.Wrapf(err, "failed to count %s", t.table)
		}
	}

	return counts, nil
}

func clearCatalog(ctx context.Context, tx *Tx) error {
	for _, table := range []string{tableMemberships, tableGroups, tableItems} {
		if _, err := tx.exec(ctx, tx.handler.squirrel.Delete(table)); err != nil {
			return errors.Wrapf(err, "failed to clear %s", table)
		}
	}
	return nil
}

func itemValues(i domain.Item) []any {
	return []any{
		i.ID, i.Title, i.Target, i.Args, string(i.Origin),
		i.Cover, i.Banner, i.Logo, i.Hero,
		toMillis(i.LastPlayed), toMillis(i.InstalledAt),
	}
}

func scanItem(rows *sql.Rows, prefix ...any) (domain.Item, error) {
	var (
		item                    domain.Item
		origin                  string
		lastPlayed, installedAt int64
	)

	dest := append(prefix,
		&item.ID, &item.Title, &item.Target, &item.Args, &origin,
		&item.Cover, &item.Banner, &item.Logo, &item.Hero,
		&lastPlayed, &installedAt,
	)
	if err := rows.Scan(dest...); err != nil {
		return item, errors.Wrap(err, "error scanning row")
	}

	item.Origin = domain.Origin(origin)
	item.LastPlayed = fromMillis(lastPlayed)
	item.InstalledAt = fromMillis(installedAt)
	return item, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
