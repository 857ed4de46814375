// Package bridgetest runs an in-process object bridge for tests. Classes are
// registered with a handler; every acquired object dispatches its calls to
// the handler of its class.
package bridgetest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bnema/hfmctl/internal/domain"
)

// Handler serves the calls on objects of one class. Returning a
// domain.ObjectRef hands a new object back to the client; errors wrapping
// domain.ErrCapabilityNotFound or domain.ErrSignatureMismatch and
// *domain.RemoteError map to their wire form.
type Handler func(obj domain.ObjectRef, method string, args []any) (any, error)

type Call struct {
	Object string
	Class  string
	Method string
	Args   []any
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	classes  map[string]Handler
	objects  map[string]domain.ObjectRef
	next     int
	calls    []Call
	released []string
	token    string
}

func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{classes: map[string]Handler{}, objects: map[string]domain.ObjectRef{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// RequireToken makes every request without the bearer token fail with 401.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *Server) Register(class string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class] = handler
}

// NewObject registers a live object of class, for handlers returning one.
func (s *Server) NewObject(class string) domain.ObjectRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	ref := domain.ObjectRef{ID: fmt.Sprintf("obj-%d", s.next), Class: class}
	s.objects[ref.ID] = ref
	return ref
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Methods lists "Class.method" for every call, in order.
func (s *Server) Methods() []string {
	var out []string
	for _, c := range s.Calls() {
		name := c.Class
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		out = append(out, name+"."+c.Method)
	}
	return out
}

func (s *Server) Released() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.released...)
}

// Live counts objects acquired and not yet released.
func (s *Server) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "objects":
		s.acquire(w, r)
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "objects" && parts[2] == "calls":
		s.call(w, r, parts[1])
	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "objects":
		s.release(w, parts[1])
	default:
		writeError(w, http.StatusNotFound, "NotFound", r.Method+" "+r.URL.Path)
	}
}

func (s *Server) acquire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Class   string `json:"class"`
		Factory string `json:"factory"`
		Args    []any  `json:"args"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	s.mu.Lock()
	_, ok := s.classes[req.Class]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ClassNotFound", req.Class)
		return
	}

	ref := s.NewObject(req.Class)
	writeJSON(w, http.StatusOK, map[string]any{"ref": map[string]string{"id": ref.ID, "class": ref.Class}})
}

func (s *Server) call(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Method string `json:"method"`
		Args   []any  `json:"args"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	s.mu.Lock()
	obj, ok := s.objects[id]
	handler := s.classes[obj.Class]
	if ok {
		s.calls = append(s.calls, Call{Object: id, Class: obj.Class, Method: req.Method, Args: req.Args})
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "ObjectNotFound", id)
		return
	}

	result, err := handler(obj, req.Method, req.Args)
	var remote *domain.RemoteError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"result": encode(result)})
	case errors.Is(err, domain.ErrCapabilityNotFound):
		writeError(w, http.StatusUnprocessableEntity, "NoSuchMethod", err.Error())
	case errors.Is(err, domain.ErrSignatureMismatch):
		writeError(w, http.StatusUnprocessableEntity, "SignatureMismatch", err.Error())
	case errors.As(err, &remote):
		writeError(w, http.StatusInternalServerError, remote.Category, remote.Message)
	default:
		writeError(w, http.StatusInternalServerError, "", err.Error())
	}
}

func (s *Server) release(w http.ResponseWriter, id string) {
	s.mu.Lock()
	_, ok := s.objects[id]
	delete(s.objects, id)
	if ok {
		s.released = append(s.released, id)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "ObjectNotFound", id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ref reads an object reference argument.
func Ref(arg any) (domain.ObjectRef, bool) {
	m, ok := arg.(map[string]any)
	if !ok {
		return domain.ObjectRef{}, false
	}
	id, ok := m["$ref"].(string)
	if !ok {
		return domain.ObjectRef{}, false
	}
	class, _ := m["class"].(string)
	return domain.ObjectRef{ID: id, Class: class}, true
}

func encode(value any) any {
	switch v := value.(type) {
	case domain.ObjectRef:
		return map[string]any{"$ref": v.ID, "class": v.Class}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = encode(item)
		}
		return out
	default:
		return value
	}
}

func decode(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, category string, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"category": category, "message": message}})
}
