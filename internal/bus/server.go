// Package bus is the localhost WebSocket bridge between the daemon and the
// browser content scripts. Each operation is a tagged request type with a
// {success, data|error} envelope; clients own the fail-open decision when a
// reply comes back on the error branch.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/januspriv/janus/internal/classify"
	"github.com/januspriv/janus/internal/correction"
	"github.com/januspriv/janus/internal/logging"
	"github.com/januspriv/janus/internal/model"
)

// IdentityStore is the slice of the identity store the bus needs.
type IdentityStore interface {
	Selected() (*model.Identity, error)
	Get(id string) (*model.Identity, error)
	MergeFakes(id string, fakes []model.Characteristic) error
}

// CorrectionHistory records corrections that went out.
type CorrectionHistory interface {
	RecordCorrection(identity, kind, message string) error
}

// Deps carries the server's collaborators. History may be nil.
type Deps struct {
	Classifier classify.Service
	Identities IdentityStore
	Composer   *correction.Composer
	History    CorrectionHistory
	Log        *logging.Logger
}

// Server serves the bridge over HTTP upgrade on a localhost listener.
type Server struct {
	deps     Deps
	upgrader websocket.Upgrader
}

// New builds a bridge server.
func New(deps Deps) *Server {
	return &Server{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The daemon binds to loopback only; the content script connects
			// from an arbitrary page origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Log.Warnf("bus: upgrade: %v", err)
		return
	}
	safe := NewSafeConn(conn)
	defer safe.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(512 * 1024)
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.deps.Log.Warnf("bus: read: %v", err)
			}
			// Connection gone: in-flight handlers are cancelled; the client
			// side resolves pending intercepts as proceed-with-original.
			return
		}
		go s.handle(ctx, safe, req)
	}
}

// ListenAndServe serves the bridge at addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/bridge", s)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	s.deps.Log.Infof("bus: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("bus: serve: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn *SafeConn, req Request) {
	data, err := s.dispatch(ctx, req)
	resp := Response{ID: req.ID, Type: req.Type}
	if err != nil {
		s.deps.Log.Warnf("bus: %s: %v", req.Type, err)
		resp.Error = err.Error()
	} else {
		resp.Success = true
		resp.Data = data
	}
	if err := conn.WriteJSON(resp); err != nil {
		s.deps.Log.Warnf("bus: write response: %v", err)
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("invalid payload: %w", err)
	}
	return v, nil
}

func (s *Server) selected() (*model.Identity, error) {
	id, err := s.deps.Identities.Selected()
	if err != nil {
		return nil, fmt.Errorf("read selected identity: %w", err)
	}
	return id, nil
}

func (s *Server) dispatch(ctx context.Context, req Request) (interface{}, error) {
	switch req.Type {
	case OpDetect:
		p, err := decode[DetectRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		items, err := s.deps.Classifier.Detect(ctx, p.Text, selected, p.History)
		if err != nil {
			return nil, err
		}
		return DetectResponse{Items: items}, nil

	case OpRewrite:
		p, err := decode[RewriteRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		text, err := s.deps.Classifier.Rewrite(ctx, p.Text, p.Items, selected)
		if err != nil {
			return nil, err
		}
		return RewriteResponse{Text: text}, nil

	case OpCheckContext:
		p, err := decode[CheckContextRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		res, err := s.deps.Classifier.CheckContext(ctx, p.Text, selected)
		if err != nil {
			return nil, err
		}
		return res, nil

	case OpAuditResponse:
		p, err := decode[AuditResponseRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		if selected == nil {
			// Nothing to audit against.
			return AuditResponseResponse{}, nil
		}
		items, err := s.deps.Classifier.AuditResponse(ctx, p.Text, selected)
		if err != nil {
			return nil, err
		}
		return AuditResponseResponse{Items: items}, nil

	case OpComposeCorrect:
		p, err := decode[ComposeCorrectionRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		plan := model.PlanFromDispositions(p.Violations)
		res, err := s.deps.Composer.Compose(ctx, plan, selected)
		if err != nil {
			return nil, err
		}
		return res, nil

	case OpComposeSwitch:
		p, err := decode[ComposeSwitchRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		if len(p.Overlaps) == 0 && len(p.Denials) == 0 {
			return ComposeSwitchResponse{}, nil
		}
		msg, err := s.deps.Classifier.ComposeSwitchMessage(ctx, p.Overlaps, p.Denials)
		if err != nil {
			return nil, err
		}
		return ComposeSwitchResponse{Message: msg}, nil

	case OpExtract:
		p, err := decode[ExtractRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		chars, err := s.deps.Classifier.ExtractCharacteristics(ctx, p.Prompt, p.Existing)
		if err != nil {
			return nil, err
		}
		return ExtractResponse{Characteristics: chars}, nil

	case OpSummarize:
		p, err := decode[SummarizeRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		summary, err := s.deps.Classifier.Summarize(ctx, p.Name, p.Characteristics)
		if err != nil {
			return nil, err
		}
		return SummarizeResponse{Summary: summary}, nil

	case OpGenerateDecoys:
		p, err := decode[GenerateDecoysRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		chars, err := s.deps.Classifier.GenerateDecoys(ctx, p.Characteristics)
		if err != nil {
			return nil, err
		}
		return GenerateDecoysResponse{Characteristics: chars}, nil

	case OpIdentitySwitched:
		p, err := decode[IdentitySwitchedRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		var prev, next *model.Identity
		if p.PrevID != "" {
			if prev, err = s.deps.Identities.Get(p.PrevID); err != nil {
				return nil, fmt.Errorf("previous identity: %w", err)
			}
		}
		if p.NextID != "" {
			if next, err = s.deps.Identities.Get(p.NextID); err != nil {
				return nil, fmt.Errorf("next identity: %w", err)
			}
		}
		res, err := s.deps.Composer.ComposeSwitch(ctx, prev, next)
		if err != nil {
			return nil, err
		}
		return IdentitySwitchedResponse{
			HasPollution: res.HasPollution,
			Message:      res.Message,
			Overlaps:     res.Overlaps,
			Denials:      res.DenialsOnly,
		}, nil

	case OpGetIdentity:
		selected, err := s.selected()
		if err != nil {
			return nil, err
		}
		return GetIdentityResponse{Identity: selected}, nil

	case OpCorrectionSent:
		p, err := decode[CorrectionSentRequest](req.Payload)
		if err != nil {
			return nil, err
		}
		if p.IdentityID == "" {
			return nil, fmt.Errorf("missing identity_id")
		}
		if len(p.FakeValues) > 0 {
			if err := s.deps.Identities.MergeFakes(p.IdentityID, p.FakeValues); err != nil {
				return nil, err
			}
		}
		if s.deps.History != nil && p.Message != "" {
			if err := s.deps.History.RecordCorrection(p.IdentityID, p.Kind, p.Message); err != nil {
				s.deps.Log.Warnf("bus: record correction: %v", err)
			}
		}
		return struct{}{}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", req.Type)
	}
}
