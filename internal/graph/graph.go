package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/entity"
)

// Edge is an accepted link as seen from one of its endpoints.
type Edge struct {
	entity.Link
	Kind       entity.LinkKind `json:"kind"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason,omitempty"`
	LinkedAt   time.Time       `json:"linked_at"`
	// Outgoing is true when the queried entity is the link's source.
	Outgoing bool `json:"outgoing"`
}

// LinkGraph mirrors accepted links into Neo4j as
// (:Entity)-[:LINKED_TO]->(:Entity) so they can be browsed as a graph.
type LinkGraph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New connects to Neo4j and verifies the connection.
func New(ctx context.Context, uri, user, password string, logger *zap.Logger) (*LinkGraph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j: %w", err)
	}
	logger.Info("Neo4j connected", zap.String("uri", uri))
	return &LinkGraph{driver: driver, logger: logger}, nil
}

// Close shuts down the Neo4j driver.
func (g *LinkGraph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// EnsureSchema creates the uniqueness constraint on entity ids.
func (g *LinkGraph) EnsureSchema(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (e:Entity) REQUIRE e.id IS UNIQUE`, nil)
	if err != nil {
		return fmt.Errorf("create entity constraint: %w", err)
	}
	return nil
}

// UpsertNode creates or renames an entity node.
func (g *LinkGraph) UpsertNode(ctx context.Context, id string, typ entity.Type, name string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (e:Entity {id: $id})
		 SET e.type = $type, e.name = $name`,
		map[string]interface{}{
			"id":   id,
			"type": string(typ),
			"name": name,
		})
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", id, err)
	}
	return nil
}

// MirrorLink records an accepted link. Re-accepting the same pair updates
// the edge instead of adding a second one.
func (g *LinkGraph) MirrorLink(ctx context.Context, l entity.Link, confidence float64, reason string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Entity {id: $from})
		 ON CREATE SET a.type = $fromType
		 MERGE (b:Entity {id: $to})
		 ON CREATE SET b.type = $toType
		 MERGE (a)-[r:LINKED_TO]->(b)
		 SET r.kind = $kind, r.confidence = $confidence,
		     r.reason = $reason, r.linked_at = $linkedAt`,
		map[string]interface{}{
			"from":       l.SourceID,
			"fromType":   string(l.SourceType),
			"to":         l.TargetID,
			"toType":     string(l.TargetType),
			"kind":       string(l.Kind()),
			"confidence": confidence,
			"reason":     reason,
			"linkedAt":   time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("mirror link %s->%s: %w", l.SourceID, l.TargetID, err)
	}
	return nil
}

// Neighbors returns every link touching entityID in either direction,
// strongest first.
func (g *LinkGraph) Neighbors(ctx context.Context, entityID string) ([]Edge, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Entity)-[r:LINKED_TO]->(b:Entity)
		 WHERE a.id = $id OR b.id = $id
		 RETURN a.id, a.type, b.id, b.type, r.kind, r.confidence, r.reason, r.linked_at
		 ORDER BY r.confidence DESC, b.id`,
		map[string]interface{}{"id": entityID})
	if err != nil {
		return nil, fmt.Errorf("get neighbors of %s: %w", entityID, err)
	}

	edges := []Edge{}
	for result.Next(ctx) {
		rec := result.Record()
		fromID, _ := rec.Get("a.id")
		fromType, _ := rec.Get("a.type")
		toID, _ := rec.Get("b.id")
		toType, _ := rec.Get("b.type")
		kind, _ := rec.Get("r.kind")
		confidence, _ := rec.Get("r.confidence")
		reason, _ := rec.Get("r.reason")
		linkedAt, _ := rec.Get("r.linked_at")

		e := Edge{
			Link: entity.Link{
				SourceID:   asString(fromID),
				SourceType: entity.Type(asString(fromType)),
				TargetID:   asString(toID),
				TargetType: entity.Type(asString(toType)),
			},
			Kind:   entity.LinkKind(asString(kind)),
			Reason: asString(reason),
		}
		e.Outgoing = e.SourceID == entityID
		if c, ok := confidence.(float64); ok {
			e.Confidence = c
		}
		if t, ok := linkedAt.(time.Time); ok {
			e.LinkedAt = t
		}
		edges = append(edges, e)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read neighbors of %s: %w", entityID, err)
	}
	return edges, nil
}

// Unlink removes the edge from sourceID to targetID. It reports whether an
// edge existed.
func (g *LinkGraph) Unlink(ctx context.Context, sourceID, targetID string) (bool, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (:Entity {id: $from})-[r:LINKED_TO]->(:Entity {id: $to})
		 DELETE r`,
		map[string]interface{}{"from": sourceID, "to": targetID})
	if err != nil {
		return false, fmt.Errorf("unlink %s->%s: %w", sourceID, targetID, err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return false, fmt.Errorf("unlink %s->%s: %w", sourceID, targetID, err)
	}
	return summary.Counters().RelationshipsDeleted() > 0, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
