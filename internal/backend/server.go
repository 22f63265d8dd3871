package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// ServerConfig configures the procedure endpoint served by NewRouter
type ServerConfig struct {
	Plugin string
	Token  string // Empty disables the check
	Logger *slog.Logger
}

type procedureHandler struct {
	svc    Service
	cfg    ServerConfig
	logger *slog.Logger
}

// NewRouter serves svc over the plugin host's method-call contract:
// POST /plugins/{plugin}/methods/{procedure} with {"args": [...]}.
func NewRouter(svc Service, cfg ServerConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &procedureHandler{svc: svc, cfg: cfg, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/plugins/{plugin}/methods/{procedure}", h.call).Methods("POST")
	return r
}

func (h *procedureHandler) call(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	plugin, procedure := vars["plugin"], vars["procedure"]

	if h.cfg.Plugin != "" && plugin != h.cfg.Plugin {
		http.Error(w, "plugin not found", http.StatusNotFound)
		return
	}
	if h.cfg.Token != "" && r.Header.Get(tokenHeader) != h.cfg.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Args []json.RawMessage `json:"args"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxResponseSize)).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	result, err := h.dispatch(r, procedure, req.Args)
	h.logger.Info("procedure served",
		"procedure", procedure,
		"request_id", r.Header.Get(requestIDHeader),
		"error", err)

	resp := callResponse{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	} else {
		data, mErr := json.Marshal(result)
		if mErr != nil {
			resp = callResponse{Success: false, Error: mErr.Error()}
		} else {
			resp.Result = data
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// dispatch runs one procedure with its positional arguments
func (h *procedureHandler) dispatch(r *http.Request, procedure string, args []json.RawMessage) (any, error) {
	ctx := r.Context()

	switch procedure {
	case ProcGetCurrentTTL:
		if err := arity(procedure, args, 0); err != nil {
			return nil, err
		}
		ttl, err := h.svc.GetCurrentTTL(ctx)
		if err != nil {
			return nil, err
		}
		return ttl, nil

	case ProcSetTTLTo65:
		if err := arity(procedure, args, 0); err != nil {
			return nil, err
		}
		return h.svc.SetTTLTo65(ctx)

	case ProcResetTTLToDefault:
		if err := arity(procedure, args, 0); err != nil {
			return nil, err
		}
		return h.svc.ResetTTLToDefault(ctx)

	case ProcGetPersistentTTL:
		if err := arity(procedure, args, 0); err != nil {
			return nil, err
		}
		return h.svc.GetPersistentTTL(ctx)

	case ProcMakeTTLPersistent, ProcSetTTLCustom:
		if err := arity(procedure, args, 1); err != nil {
			return nil, err
		}
		var ttl int
		if err := json.Unmarshal(args[0], &ttl); err != nil {
			return nil, fmt.Errorf("%s: ttl_value must be an integer", procedure)
		}
		if procedure == ProcMakeTTLPersistent {
			return h.svc.MakeTTLPersistent(ctx, ttl)
		}
		return h.svc.SetTTLCustom(ctx, ttl)

	default:
		return nil, fmt.Errorf("unknown procedure %q", procedure)
	}
}

func arity(procedure string, args []json.RawMessage, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s takes %d positional arguments but %d were given", procedure, want, len(args))
	}
	return nil
}
