package searchindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/inkwell-io/inkwell/server/internal/model"
)

const entryClass = "JournalEntry"

// journalEntryNS namespaces entry IDs into deterministic Weaviate object IDs
// so upserts and deletes address the same object across restarts.
var journalEntryNS = uuid.MustParse("7e3f1f3a-90c4-4d8f-9a7e-2f6f6a3a9b11")

// weavIndex is an Index backed by Weaviate. The embedded MemIndex is the
// default backend; this one serves deployments that already run Weaviate.
type weavIndex struct {
	client *weaviate.Client
	dim    int
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL.
// baseURL should be host:port without scheme, e.g. "localhost:8081".
func NewWeaviateIndex(baseURL string, dim int) (Index, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &weavIndex{client: cl, dim: dim}, nil
}

func objectID(entryID string) string {
	return uuid.NewSHA1(journalEntryNS, []byte(entryID)).String()
}

func (w *weavIndex) properties(p Point) map[string]interface{} {
	return map[string]interface{}{
		"entryId": p.ID,
		"ownerId": p.OwnerID,
		"title":   p.Payload.Title,
		"snippet": p.Payload.Snippet,
	}
}

func (w *weavIndex) Insert(ctx context.Context, p Point) error {
	exists, err := w.client.Data().Checker().
		WithClassName(entryClass).
		WithID(objectID(p.ID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate exists check: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", model.ErrDuplicateID, p.ID)
	}
	_, err = w.client.Data().Creator().
		WithClassName(entryClass).
		WithID(objectID(p.ID)).
		WithProperties(w.properties(p)).
		WithVector(p.Vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate insert: %w", err)
	}
	return nil
}

func (w *weavIndex) Upsert(ctx context.Context, p Point) error {
	// PUT replaces the object (vector included) under the same ID.
	err := w.client.Data().Updater().
		WithClassName(entryClass).
		WithID(objectID(p.ID)).
		WithProperties(w.properties(p)).
		WithVector(p.Vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate upsert: %w", err)
	}
	return nil
}

func (w *weavIndex) Delete(ctx context.Context, id string) (bool, error) {
	exists, err := w.client.Data().Checker().
		WithClassName(entryClass).
		WithID(objectID(id)).
		Do(ctx)
	if err != nil {
		return false, fmt.Errorf("weaviate exists check: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := w.client.Data().Deleter().
		WithClassName(entryClass).
		WithID(objectID(id)).
		Do(ctx); err != nil {
		return false, fmt.Errorf("weaviate delete: %w", err)
	}
	return true, nil
}

func (w *weavIndex) Search(ctx context.Context, ownerID string, vec []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	nv := w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	req := w.client.GraphQL().Get().
		WithClassName(entryClass).
		WithNearVector(nv).
		WithLimit(k).
		WithFields(
			gql.Field{Name: "entryId"},
			gql.Field{Name: "ownerId"},
			gql.Field{Name: "title"},
			gql.Field{Name: "snippet"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "distance"}}},
		)
	if ownerID != "" {
		where := filters.Where().WithPath([]string{"ownerId"}).WithOperator(filters.Equal).WithValueText(ownerID)
		req = req.WithWhere(where)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("weaviate graphql: %s", strings.Join(msgs, "; "))
	}

	getData, ok := resp.Data["Get"].(map[string]interface{})
	if !ok {
		return []Hit{}, nil
	}
	raw, ok := getData[entryClass].([]interface{})
	if !ok {
		return []Hit{}, nil
	}

	safeString := func(v interface{}) string {
		s, _ := v.(string)
		return s
	}

	out := make([]Hit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var score float64
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["distance"].(type) {
			case float64:
				score = 1 - v // cosine distance -> cosine similarity
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					score = 1 - f
				}
			}
		}
		out = append(out, Hit{
			ID:      safeString(m["entryId"]),
			OwnerID: safeString(m["ownerId"]),
			Score:   score,
			Payload: Payload{Title: safeString(m["title"]), Snippet: safeString(m["snippet"])},
		})
	}
	return out, nil
}

func (w *weavIndex) Count(ctx context.Context) (int, error) {
	resp, err := w.client.GraphQL().Aggregate().
		WithClassName(entryClass).
		WithFields(gql.Field{Name: "meta", Fields: []gql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	agg, ok := resp.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	arr, ok := agg[entryClass].([]interface{})
	if !ok || len(arr) == 0 {
		return 0, nil
	}
	m, _ := arr[0].(map[string]interface{})
	meta, _ := m["meta"].(map[string]interface{})
	if c, ok := meta["count"].(float64); ok {
		return int(c), nil
	}
	return 0, nil
}

// HealthPing reports readiness of the Weaviate instance.
func (w *weavIndex) HealthPing(ctx context.Context) error {
	ready, err := w.client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("weaviate not ready")
	}
	return nil
}
