package store

import (
	"context"
	"iter"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows or shapes a query, in the form accepted by gorm.DB.Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Table provides primary-key and predicate access to one entity type.
// Writes never cascade into associations.
type Table[T any] struct {
	db *gorm.DB
}

// Insert creates a new row. A missing referenced row yields ErrForeignKey.
func (t Table[T]) Insert(ctx context.Context, entity *T) error {
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

// InsertOrReplace writes every column of entity, creating the row if its
// primary key is unknown.
func (t Table[T]) InsertOrReplace(ctx context.Context, entity *T) error {
	return translate(t.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error)
}

// GetByID loads the row with the given id, or returns ErrNotFound.
func (t Table[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var out T
	if err := t.db.WithContext(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// GetByIDForUpdate is GetByID with a row lock held until the enclosing
// scope ends. Dialects without row locks (sqlite) ignore the clause.
func (t Table[T]) GetByIDForUpdate(ctx context.Context, id string) (*T, error) {
	var out T
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// List returns every row matching scopes, in the order they impose.
func (t Table[T]) List(ctx context.Context, scopes ...Scope) ([]T, error) {
	var out []T
	if err := t.db.WithContext(ctx).Scopes(scopes...).Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Stream yields matching rows one at a time from an open cursor. The cursor
// holds a connection until iteration stops.
func (t Table[T]) Stream(ctx context.Context, scopes ...Scope) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		q := t.db.WithContext(ctx).Model(new(T)).Scopes(scopes...)
		rows, err := q.Rows()
		if err != nil {
			yield(zero, translate(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var item T
			if err := q.ScanRows(rows, &item); err != nil {
				yield(zero, translate(err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, translate(err))
		}
	}
}

// Count returns the number of rows matching scopes.
func (t Table[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var n int64
	if err := t.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// Scan runs an aggregate query shaped by scopes and scans it into dest.
func (t Table[T]) Scan(ctx context.Context, dest any, scopes ...Scope) error {
	return translate(t.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).Scan(dest).Error)
}

// Update overwrites every column of an existing row except id and
// created_at. It returns ErrNotFound when no row has entity's primary key.
func (t Table[T]) Update(ctx context.Context, entity *T) error {
	res := t.db.WithContext(ctx).
		Model(entity).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(entity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateColumns sets values on every row matching scopes and returns how many
// rows changed. Scopes must include a condition.
func (t Table[T]) UpdateColumns(ctx context.Context, values map[string]any, scopes ...Scope) (int64, error) {
	res := t.db.WithContext(ctx).Model(new(T)).Scopes(scopes...).UpdateColumns(values)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByID removes the row with the given id, or returns ErrNotFound.
func (t Table[T]) DeleteByID(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Where returns a scope applying a single condition.
func Where(query any, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// OrderBy returns a scope applying an ORDER BY expression.
func OrderBy(order string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

// Select returns a scope restricting the selected columns or expressions.
func Select(query any, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Select(query, args...)
	}
}

// GroupBy returns a scope applying a GROUP BY clause.
func GroupBy(column string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Group(column)
	}
}
