package linking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nidhogg/fived/internal/entity"
	"github.com/nidhogg/fived/internal/events"
	"github.com/nidhogg/fived/internal/graph"
	"github.com/nidhogg/fived/internal/linker"
	"github.com/nidhogg/fived/internal/session"
	"github.com/nidhogg/fived/internal/store"
)

var (
	// ErrUnknownKind is returned when a suggestion pairs unsupported entity types.
	ErrUnknownKind = errors.New("unsupported link kind")
	// ErrSessionRequired is returned when a dismissal has no session to live in.
	ErrSessionRequired = errors.New("session id is required")
	// ErrGraphUnavailable is returned by Links when no link graph is configured.
	ErrGraphUnavailable = errors.New("link graph not configured")
)

// Graph is the link-graph surface the service uses. *graph.LinkGraph
// implements it.
type Graph interface {
	UpsertNode(ctx context.Context, id string, typ entity.Type, name string) error
	MirrorLink(ctx context.Context, l entity.Link, confidence float64, reason string) error
	Neighbors(ctx context.Context, entityID string) ([]graph.Edge, error)
	Unlink(ctx context.Context, sourceID, targetID string) (bool, error)
}

// Deps wires the service. Graph and Events are optional.
type Deps struct {
	Store    store.Entities
	Engine   *linker.Engine
	Sessions session.Store
	Graph    Graph
	Events   events.Publisher
}

// Service runs suggestions against the current entity store and applies the
// ones a user accepts.
type Service struct {
	store    store.Entities
	engine   *linker.Engine
	sessions session.Store
	graph    Graph
	events   events.Publisher
	logger   *zap.Logger
}

// New creates a Service. A nil Engine uses default weights and nil Sessions
// keeps dismissals in memory.
func New(deps Deps, logger *zap.Logger) *Service {
	if deps.Engine == nil {
		deps.Engine = linker.NewEngine(linker.DefaultWeights())
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemory(session.DefaultTTL)
	}
	return &Service{
		store:    deps.Store,
		engine:   deps.Engine,
		sessions: deps.Sessions,
		graph:    deps.Graph,
		events:   deps.Events,
		logger:   logger,
	}
}

// GraphEnabled reports whether accepted links are mirrored to a graph.
func (s *Service) GraphEnabled() bool { return s.graph != nil }

// Engine exposes the scoring engine.
func (s *Service) Engine() *linker.Engine { return s.engine }

// withDismissed adds the session's dismissed ids to opts.Dismissed.
func (s *Service) withDismissed(ctx context.Context, sessionID string, opts linker.Options) (linker.Options, error) {
	if sessionID == "" {
		return opts, nil
	}
	ids, err := s.sessions.Dismissed(ctx, sessionID)
	if err != nil {
		return opts, err
	}
	merged := make([]string, 0, len(opts.Dismissed)+len(ids))
	merged = append(merged, opts.Dismissed...)
	opts.Dismissed = append(merged, ids...)
	return opts, nil
}

// Suggestions ranks link suggestions across every entity.
func (s *Service) Suggestions(ctx context.Context, sessionID string, opts linker.Options) ([]linker.Suggestion, error) {
	start := time.Now()
	opts, err := s.withDismissed(ctx, sessionID, opts)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}

	out := s.engine.Generate(snap.Characters, snap.Worlds, snap.Projects, opts)
	s.logger.Debug("suggestions generated",
		zap.Int("characters", len(snap.Characters)),
		zap.Int("worlds", len(snap.Worlds)),
		zap.Int("projects", len(snap.Projects)),
		zap.Int("dismissed", len(opts.Dismissed)),
		zap.Int("suggestions", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// SuggestionsFor ranks suggestions involving one entity. It returns
// store.ErrNotFound when the entity does not exist.
func (s *Service) SuggestionsFor(ctx context.Context, sessionID, id string, typ entity.Type, opts linker.Options) ([]linker.Suggestion, error) {
	start := time.Now()
	if _, err := s.entityName(ctx, id, typ); err != nil {
		return nil, err
	}
	opts, err := s.withDismissed(ctx, sessionID, opts)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}

	out := s.engine.ForEntity(id, typ, snap.Characters, snap.Worlds, snap.Projects, opts)
	s.logger.Debug("entity suggestions generated",
		zap.String("id", id),
		zap.String("type", string(typ)),
		zap.Int("suggestions", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

// Accept applies a suggestion to the store. Mirroring to the link graph and
// publishing the event are best effort and only logged on failure.
func (s *Service) Accept(ctx context.Context, sessionID string, sg linker.Suggestion) error {
	l := sg.Link()
	previous := s.currentTarget(ctx, l)
	var err error
	switch l.Kind() {
	case entity.KindCharacterWorld:
		err = s.store.LinkCharacterToWorld(ctx, l.SourceID, l.TargetID)
	case entity.KindCharacterProject:
		err = s.store.AddCharacterToProject(ctx, l.SourceID, l.TargetID)
	case entity.KindWorldProject:
		err = s.store.AddWorldToProject(ctx, l.SourceID, l.TargetID)
	default:
		return fmt.Errorf("accept %s/%s: %w", l.SourceType, l.TargetType, ErrUnknownKind)
	}
	if err != nil {
		return fmt.Errorf("accept %s: %w", linker.SuggestionID(l.SourceID, l.TargetID), err)
	}

	sourceName, _ := s.entityName(ctx, l.SourceID, l.SourceType)
	targetName, _ := s.entityName(ctx, l.TargetID, l.TargetType)

	if s.graph != nil {
		if err := s.mirror(ctx, l, sourceName, targetName, sg); err != nil {
			s.logger.Warn("mirror link to graph failed",
				zap.String("source", l.SourceID),
				zap.String("target", l.TargetID),
				zap.Error(err))
		}
		// a source holds one target per kind; drop the edge it replaced
		if previous != "" && previous != l.TargetID {
			if _, err := s.graph.Unlink(ctx, l.SourceID, previous); err != nil {
				s.logger.Warn("remove replaced graph link failed",
					zap.String("source", l.SourceID),
					zap.String("target", previous),
					zap.Error(err))
			}
		}
	}

	s.publish(ctx, &events.Event{
		Type:         events.LinkAccepted,
		SessionID:    sessionID,
		SuggestionID: linker.SuggestionID(l.SourceID, l.TargetID),
		Link:         l,
		SourceName:   sourceName,
		TargetName:   targetName,
		Kind:         l.Kind(),
		Confidence:   sg.Confidence,
		Reason:       sg.Reason,
	})
	s.logger.Info("link accepted",
		zap.String("kind", string(l.Kind())),
		zap.String("source", l.SourceID),
		zap.String("target", l.TargetID))
	return nil
}

// currentTarget returns what the link's source already points at for the
// link's kind, or "" when unlinked or unknown.
func (s *Service) currentTarget(ctx context.Context, l entity.Link) string {
	switch l.Kind() {
	case entity.KindCharacterWorld, entity.KindCharacterProject:
		c, err := s.store.GetCharacter(ctx, l.SourceID)
		if err != nil {
			return ""
		}
		if l.Kind() == entity.KindCharacterWorld {
			return c.WorldID
		}
		return c.ProjectID
	case entity.KindWorldProject:
		w, err := s.store.GetWorld(ctx, l.SourceID)
		if err != nil {
			return ""
		}
		return w.ProjectID
	}
	return ""
}

func (s *Service) mirror(ctx context.Context, l entity.Link, sourceName, targetName string, sg linker.Suggestion) error {
	if err := s.graph.UpsertNode(ctx, l.SourceID, l.SourceType, sourceName); err != nil {
		return err
	}
	if err := s.graph.UpsertNode(ctx, l.TargetID, l.TargetType, targetName); err != nil {
		return err
	}
	return s.graph.MirrorLink(ctx, l, sg.Confidence, sg.Reason)
}

// Dismiss hides a suggestion for the rest of the session.
func (s *Service) Dismiss(ctx context.Context, sessionID, suggestionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if suggestionID == "" {
		return fmt.Errorf("suggestion id is required")
	}
	if err := s.sessions.Dismiss(ctx, sessionID, suggestionID); err != nil {
		return err
	}
	s.publish(ctx, &events.Event{
		Type:         events.SuggestionDismissed,
		SessionID:    sessionID,
		SuggestionID: suggestionID,
	})
	return nil
}

// ResetDismissed forgets every dismissal made in a session.
func (s *Service) ResetDismissed(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	return s.sessions.Clear(ctx, sessionID)
}

// Links returns the accepted links touching an entity from the link graph.
func (s *Service) Links(ctx context.Context, entityID string) ([]graph.Edge, error) {
	if s.graph == nil {
		return nil, ErrGraphUnavailable
	}
	return s.graph.Neighbors(ctx, entityID)
}

func (s *Service) publish(ctx context.Context, ev *events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish link event failed",
			zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func (s *Service) entityName(ctx context.Context, id string, typ entity.Type) (string, error) {
	switch typ {
	case entity.TypeCharacter:
		c, err := s.store.GetCharacter(ctx, id)
		if err != nil {
			return "", err
		}
		return c.Name, nil
	case entity.TypeWorld:
		w, err := s.store.GetWorld(ctx, id)
		if err != nil {
			return "", err
		}
		return w.Name, nil
	case entity.TypeProject:
		p, err := s.store.GetProject(ctx, id)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	}
	return "", fmt.Errorf("entity type %q: %w", typ, ErrUnknownKind)
}
