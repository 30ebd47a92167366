package service

import (
	"alcyxob/gym-console/internal/repository"
	"context"
)

// replaceChildren swaps every row of table owned by ownerID for rows. It
// deletes first and inserts second, so a failed insert leaves the owner with
// no children. Each row gets foreignKey set to ownerID.
func replaceChildren(ctx context.Context, tables repository.Tables, table, foreignKey, ownerID string, rows []repository.Row) error {
	if _, err := tables.Delete(ctx, table, repository.Filter{foreignKey: ownerID}); err != nil {
		return &RemoteWriteError{Step: "clear " + table, Err: err}
	}
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		r[foreignKey] = ownerID
	}
	if err := tables.Insert(ctx, table, rows...); err != nil {
		return &RemoteWriteError{Step: "insert " + table, Err: err}
	}
	return nil
}
