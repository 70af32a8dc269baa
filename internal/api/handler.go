package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/eugenenazirov/confsubst/internal/component"
	"github.com/eugenenazirov/confsubst/internal/loader"
	"github.com/eugenenazirov/confsubst/internal/logname"
	"github.com/eugenenazirov/confsubst/internal/property"
	"github.com/eugenenazirov/confsubst/internal/resolve"
	"github.com/eugenenazirov/confsubst/internal/subst"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

var stringType = reflect.TypeFor[string]()

// Catalog is the type registry exposed through the API.
type Catalog interface {
	loader.TypeRegistry
	Names() []string
}

// Handler wires the substitution engine, the resolver, the context property
// store and the type catalog into HTTP handlers.
type Handler struct {
	engine       *subst.Engine
	resolver     *resolve.Resolver
	properties   *property.Store
	catalog      Catalog
	capabilities func(name string) (reflect.Type, bool)

	clock func() time.Time

	mu                  sync.RWMutex
	propertiesUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithCapabilities overrides how capability names map to interface types.
func WithCapabilities(lookup func(name string) (reflect.Type, bool)) HandlerOption {
	return func(h *Handler) {
		h.capabilities = lookup
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(resolver *resolve.Resolver, store *property.Store, catalog Catalog, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:       subst.New(resolver),
		resolver:     resolver,
		properties:   store,
		catalog:      catalog,
		capabilities: component.Capability,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.propertiesUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProperties(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := propertiesResponse{
		Properties: h.properties.Snapshot(),
		UpdatedAt:  h.currentPropertiesUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutProperties(w http.ResponseWriter, r *http.Request) {
	var req propertiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.properties.Replace(req.Properties); err != nil {
		if errors.Is(err, property.ErrInvalidKey) {
			writeError(w, http.StatusBadRequest, "Invalid properties", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markPropertiesUpdated()

	resp := propertiesResponse{
		Properties: h.properties.Snapshot(),
		UpdatedAt:  h.currentPropertiesUpdatedAt(),
		Message:    "Properties updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSubstitute(w http.ResponseWriter, r *http.Request) {
	var req substituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	exp, err := h.engine.Expand(req.Input, property.NewMap(req.Properties), h.properties)
	if err != nil {
		writeSubstitutionError(w, err)
		return
	}

	resp := substituteResponse{
		Input:         req.Input,
		Result:        exp.Value,
		Undefined:     len(exp.Undefined) > 0,
		UndefinedKeys: exp.Undefined,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "key must not be empty")
		return
	}

	value, found := h.resolver.Lookup(req.Key, property.NewMap(req.Properties), h.properties)
	writeJSON(w, http.StatusOK, lookupResponse{Key: req.Key, Value: value, Found: found})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, typesResponse{Types: h.catalog.Names()})
}

func (h *Handler) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	var req instantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	capability, ok := h.capabilities(req.Capability)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request", fmt.Sprintf("unknown capability %q", req.Capability))
		return
	}

	scope := property.NewMap(req.Properties)
	className, err := h.engine.Substitute(req.ClassName, scope, h.properties)
	if err != nil {
		writeSubstitutionError(w, err)
		return
	}

	var argType reflect.Type
	var arg any
	if req.Argument != nil {
		expanded, err := h.engine.Substitute(*req.Argument, scope, h.properties)
		if err != nil {
			writeSubstitutionError(w, err)
			return
		}
		argType, arg = stringType, expanded
	}

	obj, err := loader.Instantiate(className, capability, h.catalog, argType, arg)
	if err != nil {
		writeInstantiationError(w, className, err)
		return
	}

	resp := instantiateResponse{
		ClassName:  className,
		SimpleName: logname.SimpleName(className),
		Capability: capability.String(),
		Type:       fmt.Sprintf("%T", obj),
	}
	if s, ok := obj.(fmt.Stringer); ok {
		resp.Description = s.String()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) currentPropertiesUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.propertiesUpdatedAt
}

func (h *Handler) markPropertiesUpdated() {
	h.mu.Lock()
	h.propertiesUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type propertiesRequest struct {
	Properties map[string]string `json:"properties"`
}

type substituteRequest struct {
	Input      string            `json:"input"`
	Properties map[string]string `json:"properties"`
}

type lookupRequest struct {
	Key        string            `json:"key"`
	Properties map[string]string `json:"properties"`
}

type instantiateRequest struct {
	ClassName  string            `json:"className"`
	Capability string            `json:"capability"`
	Argument   *string           `json:"argument,omitempty"`
	Properties map[string]string `json:"properties"`
}

type propertiesResponse struct {
	Properties map[string]string `json:"properties"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Message    string            `json:"message,omitempty"`
}

type substituteResponse struct {
	Input         string   `json:"input"`
	Result        string   `json:"result"`
	Undefined     bool     `json:"undefined"`
	UndefinedKeys []string `json:"undefinedKeys,omitempty"`
}

type lookupResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

type typesResponse struct {
	Types []string `json:"types"`
}

type instantiateResponse struct {
	ClassName   string `json:"className"`
	SimpleName  string `json:"simpleName"`
	Capability  string `json:"capability"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func writeSubstitutionError(w http.ResponseWriter, err error) {
	var pe *subst.ParseError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, "Invalid expression", pe.Error(), "Check that every ${ has a matching }")
		return
	}
	writeInternalError(w, err)
}

func writeInstantiationError(w http.ResponseWriter, className string, err error) {
	var incompatible *loader.IncompatibleTypeError
	var loadErr *loader.DynamicLoadError
	switch {
	case errors.Is(err, loader.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.As(err, &incompatible):
		suggestion := fmt.Sprintf("Pick a type implementing %v", incompatible.Required)
		writeError(w, http.StatusUnprocessableEntity, "Incompatible type", err.Error(), suggestion)
	case errors.As(err, &loadErr) && errors.Is(err, loader.ErrClassNotFound):
		writeError(w, http.StatusNotFound, "Unknown type", err.Error(), fmt.Sprintf("See GET /api/types for types other than %s", className))
	case errors.As(err, &loadErr):
		writeError(w, http.StatusUnprocessableEntity, "Cannot instantiate", err.Error())
	default:
		writeInternalError(w, err)
	}
}
