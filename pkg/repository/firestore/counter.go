package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// nextID atomically increments the counter document and returns the new value
func nextID(ctx context.Context, client *firestore.Client, counterRef *firestore.DocumentRef) (int64, error) {
	var next int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				next = 1
				return tx.Set(counterRef, map[string]any{
					"value": next,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		current, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := current.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", current))
		}
		next = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: next},
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID", goerr.V("counter", counterRef.Path))
	}

	return next, nil
}

// lookupNames batch-reads docs from col and returns field for every id that exists
func lookupNames(ctx context.Context, client *firestore.Client, col *firestore.CollectionRef, field string, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	for i := 0; i < len(ids); i += firestoreGetAllLimit {
		batch := ids[i:min(i+firestoreGetAllLimit, len(ids))]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = col.Doc(id)
		}

		docs, err := client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to batch get documents",
				goerr.V("collection", col.ID),
				goerr.V("count", len(batch)))
		}

		for idx, doc := range docs {
			if !doc.Exists() {
				continue
			}
			v, err := doc.DataAt(field)
			if err != nil {
				continue
			}
			if s, ok := v.(string); ok {
				names[batch[idx]] = s
			}
		}
	}

	return names, nil
}

func uniqueIDs(ptrs ...*string) []string {
	seen := make(map[string]struct{}, len(ptrs))
	ids := make([]string, 0, len(ptrs))
	for _, p := range ptrs {
		if p == nil || *p == "" {
			continue
		}
		if _, ok := seen[*p]; ok {
			continue
		}
		seen[*p] = struct{}{}
		ids = append(ids, *p)
	}
	return ids
}

func nameOf(names map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &name
}
