package bridgetest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bnema/hfmctl/internal/domain"
)

const (
	ClassServiceClientFactory = "oracle.epm.fm.common.service.ServiceClientFactory"
	ClassSecurityService      = "oracle.epm.fm.common.service.SecurityService"
	ClassSessionInfo          = "oracle.epm.fm.common.datatype.transport.SessionInfo"
	ClassDataOM               = "oracle.epm.fm.domainobject.data.DataOM"
	ClassLoadExtractOM        = "oracle.epm.fm.domainobject.loadextract.LoadExtractOM"
	ClassAdministrationOM     = "oracle.epm.fm.domainobject.administration.AdministrationOM"
)

// HFMOptions scripts the behaviour of the fake consolidation server.
type HFMOptions struct {
	// TaskStatuses is replayed one entry per status poll; the last one
	// repeats.
	TaskStatuses []domain.TaskStatus
	TaskID       int
	// Fault is raised by every server task when set.
	Fault       *domain.RemoteError
	RejectLogin bool
}

// NewHFM registers the object models of a consolidation server on a fresh
// bridge: two-step security login, server tasks on DataOM, load and
// extract on LoadExtractOM and task progress on AdministrationOM.
func NewHFM(t testing.TB, opts HFMOptions) *Server {
	t.Helper()

	if opts.TaskID == 0 {
		opts.TaskID = 42
	}
	if len(opts.TaskStatuses) == 0 {
		opts.TaskStatuses = []domain.TaskStatus{domain.TaskCompleted}
	}

	s := New(t)

	s.Register(ClassServiceClientFactory, func(_ domain.ObjectRef, method string, _ []any) (any, error) {
		switch method {
		case "getSecurityService":
			return s.NewObject(ClassSecurityService), nil
		case "setProvider", "setDomain", "setServer", "setCluster":
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, method)
		}
	})

	s.Register(ClassSecurityService, func(_ domain.ObjectRef, method string, args []any) (any, error) {
		switch method {
		case "login":
			if len(args) != 3 {
				return nil, fmt.Errorf("%w: login takes 3 arguments", domain.ErrSignatureMismatch)
			}
			if opts.RejectLogin {
				return nil, &domain.RemoteError{Category: "HFMException", Message: "Invalid user name or password"}
			}
			return s.NewObject(ClassSessionInfo), nil
		case "logout":
			return nil, nil
		case "setProvider", "setDomain", "setServer", "setCluster":
			return nil, nil
		default:
			return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, method)
		}
	})

	s.Register(ClassSessionInfo, func(domain.ObjectRef, string, []any) (any, error) {
		return nil, nil
	})

	s.Register(ClassDataOM, func(_ domain.ObjectRef, method string, _ []any) (any, error) {
		if method != "executeServerTask" {
			return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, method)
		}
		if opts.Fault != nil {
			return nil, opts.Fault
		}
		return []any{opts.TaskID}, nil
	})

	s.Register(ClassLoadExtractOM, func(domain.ObjectRef, string, []any) (any, error) {
		if opts.Fault != nil {
			return nil, opts.Fault
		}
		return true, nil
	})

	var mu sync.Mutex
	polls := 0
	s.Register(ClassAdministrationOM, func(_ domain.ObjectRef, method string, _ []any) (any, error) {
		if method != "getCurrentTaskProgress" {
			return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, method)
		}
		mu.Lock()
		status := opts.TaskStatuses[min(polls, len(opts.TaskStatuses)-1)]
		polls++
		mu.Unlock()

		percent := 50
		if status == domain.TaskCompleted {
			percent = 100
		}
		return []any{map[string]any{
			"taskID":           opts.TaskID,
			"description":      "Consolidate\r\nAPP1",
			"percentCompleted": percent,
			"taskStatus":       string(status),
		}}, nil
	})

	return s
}
