package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/facturaflow/validator/internal/core/domain"
)

// GroupStore keeps document groups as a graph: group nodes linked to
// document reference nodes via PRIMARY and RELATED edges. Document
// payloads stay in Postgres; the graph only holds membership.
type GroupStore struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewGroupStore(ctx context.Context, uri, user, password, database string) (*GroupStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &GroupStore{driver: driver, database: database}, nil
}

func (s *GroupStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GroupStore) CreateGroup(ctx context.Context, group *domain.DocumentGroup) error {
	const query = `
CREATE (g:DocumentGroup {id: $id, name: $name, created_at: $created_at})
MERGE (p:Document {id: $primary_id})
CREATE (g)-[:PRIMARY]->(p)
WITH g
UNWIND $related_ids AS rid
MERGE (d:Document {id: rid})
CREATE (g)-[:RELATED]->(d)
`
	related := group.RelatedIDs
	if related == nil {
		related = []string{}
	}
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query, map[string]any{
		"id":          group.ID,
		"name":        group.Name,
		"created_at":  group.CreatedAt,
		"primary_id":  group.PrimaryID,
		"related_ids": related,
	}, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("create group node: %w", err)
	}
	return nil
}

func (s *GroupStore) AttachDocument(ctx context.Context, groupID, documentID string) error {
	const query = `
MATCH (g:DocumentGroup {id: $group_id})
MERGE (d:Document {id: $document_id})
MERGE (g)-[:RELATED]->(d)
RETURN g.id AS id
`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, map[string]any{
		"group_id":    groupID,
		"document_id": documentID,
	}, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return fmt.Errorf("attach document edge: %w", err)
	}
	if len(result.Records) == 0 {
		return domain.WrapError(domain.ErrGroupNotFound, "attach document", errors.New(groupID))
	}
	return nil
}

func (s *GroupStore) GetGroup(ctx context.Context, id string) (*domain.DocumentGroup, error) {
	const query = `
MATCH (g:DocumentGroup {id: $id})
OPTIONAL MATCH (g)-[:PRIMARY]->(p:Document)
OPTIONAL MATCH (g)-[:RELATED]->(d:Document)
WITH g, p, d ORDER BY d.id
RETURN g.name AS name, g.created_at AS created_at, p.id AS primary_id, collect(d.id) AS related_ids
`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, map[string]any{
		"id": id,
	}, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database))
	if err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, domain.WrapError(domain.ErrGroupNotFound, "get group", errors.New(id))
	}

	record := result.Records[0]
	group := &domain.DocumentGroup{ID: id}
	if name, ok := record.Get("name"); ok {
		group.Name, _ = name.(string)
	}
	if createdAt, ok := record.Get("created_at"); ok {
		if t, isTime := createdAt.(time.Time); isTime {
			group.CreatedAt = t
		}
	}
	if primaryID, ok := record.Get("primary_id"); ok {
		group.PrimaryID, _ = primaryID.(string)
	}
	if relatedRaw, ok := record.Get("related_ids"); ok {
		if list, isList := relatedRaw.([]any); isList {
			for _, v := range list {
				if rid, isString := v.(string); isString {
					group.RelatedIDs = append(group.RelatedIDs, rid)
				}
			}
		}
	}
	return group, nil
}
