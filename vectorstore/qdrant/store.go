package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/poiesic/ragkit/vectorstore"
)

// idPayloadKey carries the row id inside the point payload. Qdrant point
// ids must be numbers or UUIDs, so the prefixed row id cannot be the point
// id itself; a UUIDv5 of the row id is used instead and the original id
// rides along in the payload.
const idPayloadKey = "_id"

// Backend stores vector rows in a Qdrant server over gRPC. Each namespace
// maps to a Qdrant collection, created on first write with cosine distance.
type Backend struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	logger      *slog.Logger
}

var _ vectorstore.Backend = (*Backend)(nil)

// Open connects to a Qdrant server's gRPC address, e.g. "localhost:6334".
func Open(addr string) (*Backend, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}

	return &Backend{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		logger:      slog.Default().With("component", "qdrant"),
	}, nil
}

// Close closes the gRPC connection.
func (b *Backend) Close() error {
	return b.conn.Close()
}

// WriteRows upserts rows into the namespace's collection, creating the
// collection from the first row's vector size when needed.
func (b *Backend) WriteRows(ctx context.Context, namespace string, rows []vectorstore.Row) error {
	if len(rows) == 0 {
		return nil
	}

	if err := b.ensureCollection(ctx, namespace, uint64(len(rows[0].Vector))); err != nil {
		return err
	}

	points := make([]*qdrantclient.PointStruct, len(rows))
	for i, row := range rows {
		points[i] = &qdrantclient.PointStruct{
			Id: pointID(row.ID),
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: row.Vector},
				},
			},
			Payload: payloadFromRow(row),
		}
	}

	_, err := b.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: namespace,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

// QueryRows searches the namespace's collection by cosine similarity.
// Result rows carry payload attributes but not vectors.
func (b *Backend) QueryRows(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]vectorstore.ScoredRow, error) {
	req := &qdrantclient.SearchPoints{
		CollectionName: namespace,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if len(filter) > 0 {
		req.Filter = filterConditions(filter)
	}

	resp, err := b.points.Search(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, vectorstore.ErrNotFound
		}
		return nil, fmt.Errorf("searching collection %s: %w", namespace, err)
	}

	hits := make([]vectorstore.ScoredRow, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		hits = append(hits, rowFromPoint(point))
	}
	return hits, nil
}

// DeleteRows removes rows by id. Missing ids are ignored by the server.
func (b *Backend) DeleteRows(ctx context.Context, namespace string, ids []string) error {
	pointIDs := make([]*qdrantclient.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	_, err := b.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: namespace,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Points{
				Points: &qdrantclient.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting %d points: %w", len(ids), err)
	}
	return nil
}

// DeleteAll drops the namespace's collection.
func (b *Backend) DeleteAll(ctx context.Context, namespace string) error {
	exists, err := b.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if !exists {
		return vectorstore.ErrNotFound
	}

	_, err = b.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: namespace,
	})
	if err != nil {
		return fmt.Errorf("deleting collection %s: %w", namespace, err)
	}
	b.logger.Debug("deleted collection", "collection", namespace)
	return nil
}

// NamespaceExists reports whether the namespace's collection exists.
func (b *Backend) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	resp, err := b.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("listing collections: %w", err)
	}
	for _, col := range resp.GetCollections() {
		if col.GetName() == namespace {
			return true, nil
		}
	}
	return false, nil
}

func (b *Backend) ensureCollection(ctx context.Context, namespace string, vectorSize uint64) error {
	exists, err := b.NamespaceExists(ctx, namespace)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = b.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: namespace,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     vectorSize,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		// A concurrent writer may have created it first.
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("creating collection %s: %w", namespace, err)
	}
	b.logger.Debug("created collection", "collection", namespace, "vector_size", vectorSize)
	return nil
}

// pointID derives a deterministic UUID point id from a row id, so repeated
// upserts of the same row replace it.
func pointID(rowID string) *qdrantclient.PointId {
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{
			Uuid: uuid.NewSHA1(uuid.NameSpaceOID, []byte(rowID)).String(),
		},
	}
}

func payloadFromRow(row vectorstore.Row) map[string]*qdrantclient.Value {
	payload := make(map[string]*qdrantclient.Value, len(row.Attributes)+1)
	for k, v := range row.Attributes {
		payload[k] = &qdrantclient.Value{
			Kind: &qdrantclient.Value_StringValue{StringValue: v},
		}
	}
	payload[idPayloadKey] = &qdrantclient.Value{
		Kind: &qdrantclient.Value_StringValue{StringValue: row.ID},
	}
	return payload
}

func rowFromPoint(point *qdrantclient.ScoredPoint) vectorstore.ScoredRow {
	row := vectorstore.Row{}
	for k, v := range point.GetPayload() {
		if k == idPayloadKey {
			row.ID = v.GetStringValue()
			continue
		}
		if row.Attributes == nil {
			row.Attributes = make(map[string]string)
		}
		row.Attributes[k] = v.GetStringValue()
	}
	return vectorstore.ScoredRow{Row: row, Score: point.GetScore()}
}

func filterConditions(filter map[string]string) *qdrantclient.Filter {
	must := make([]*qdrantclient.Condition, 0, len(filter))
	for k, v := range filter {
		must = append(must, &qdrantclient.Condition{
			ConditionOneOf: &qdrantclient.Condition_Field{
				Field: &qdrantclient.FieldCondition{
					Key: k,
					Match: &qdrantclient.Match{
						MatchValue: &qdrantclient.Match_Keyword{Keyword: v},
					},
				},
			},
		})
	}
	return &qdrantclient.Filter{Must: must}
}
