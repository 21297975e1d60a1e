package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfpdock/rfpdock/internal/cache"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	"github.com/rfpdock/rfpdock/internal/entitlement/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	ndadomain "github.com/rfpdock/rfpdock/internal/nda/domain"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
)

// DecisionTTL bounds how stale a cached grant can be. Revocation (losing a
// membership, an NDA rejection) takes effect within this window.
const DecisionTTL = 30 * time.Second

// DecisionMetrics counts resolver outcomes by decision and reason.
type DecisionMetrics struct {
	decisions *prometheus.CounterVec
}

func NewDecisionMetrics() *DecisionMetrics {
	m := &DecisionMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfpdock_entitlement_decisions_total",
			Help: "Document access decisions by outcome and denial reason.",
		}, []string{"decision", "reason"}),
	}
	prometheus.MustRegister(m.decisions)
	return m
}

func (m *DecisionMetrics) observe(decision domain.Decision) {
	if m == nil {
		return
	}
	outcome := "denied"
	if decision.Allowed {
		outcome = "granted"
	}
	m.decisions.WithLabelValues(outcome, string(decision.Reason)).Inc()
}

type resolver struct {
	rfpRepo     rfpdomain.Repository
	companyRepo companydomain.Repository
	ndaRepo     ndadomain.Repository
	cache       cache.Cache[string, domain.Decision]
	metrics     *DecisionMetrics
	ttl         time.Duration
}

func NewResolver(
	rfpRepo rfpdomain.Repository,
	companyRepo companydomain.Repository,
	ndaRepo ndadomain.Repository,
	metrics *DecisionMetrics,
) domain.Resolver {
	return newResolver(rfpRepo, companyRepo, ndaRepo, metrics, DecisionTTL)
}

func newResolver(
	rfpRepo rfpdomain.Repository,
	companyRepo companydomain.Repository,
	ndaRepo ndadomain.Repository,
	metrics *DecisionMetrics,
	ttl time.Duration,
) *resolver {
	return &resolver{
		rfpRepo:     rfpRepo,
		companyRepo: companyRepo,
		ndaRepo:     ndaRepo,
		cache:       cache.NewTTLCache[string, domain.Decision](),
		metrics:     metrics,
		ttl:         ttl,
	}
}

// CanAccess evaluates the gates in a fixed order: authentication, the
// open-document short circuit, company registration approval, then NDA.
// The first failing gate names the denial reason; later gates are not
// consulted.
func (r *resolver) CanAccess(ctx context.Context, principal identitydomain.Principal, document documentdomain.Document) (domain.Decision, error) {
	if principal.ID == 0 {
		return domain.Decision{}, domain.ErrPermissionDenied
	}

	// Open documents need no company or NDA state at all.
	if !document.RequiresApproval && !document.RequiresNDA {
		decision := domain.Decision{Allowed: true}
		r.metrics.observe(decision)
		return decision, nil
	}

	// The reviewing side owns the documents; gates apply to bidders.
	if principal.IsReviewer() {
		decision := domain.Decision{Allowed: true}
		r.metrics.observe(decision)
		return decision, nil
	}

	key := fmt.Sprintf("%d|%d", principal.ID, document.ID)
	if cached, ok := r.cache.Get(key); ok {
		r.metrics.observe(cached)
		return cached, nil
	}

	decision, err := r.resolve(ctx, principal, document)
	if err != nil {
		return domain.Decision{}, err
	}

	r.cache.Set(key, decision, r.ttl)
	r.metrics.observe(decision)
	return decision, nil
}

func (r *resolver) resolve(ctx context.Context, principal identitydomain.Principal, document documentdomain.Document) (domain.Decision, error) {
	member, err := r.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return domain.Decision{}, err
	}
	if member != nil && member.Role == companydomain.RolePending {
		// A provisional membership grants nothing.
		member = nil
	}

	if document.RequiresApproval {
		if member == nil {
			return domain.Decision{Reason: domain.ReasonApprovalRequired}, nil
		}
		registration, err := r.rfpRepo.GetRegistration(ctx, document.RFPID, member.CompanyID)
		if err != nil {
			return domain.Decision{}, err
		}
		if registration == nil || registration.Status != rfpdomain.RegistrationApproved {
			return domain.Decision{Reason: domain.ReasonApprovalRequired}, nil
		}
	}

	if document.RequiresNDA {
		satisfied, err := r.ndaSatisfied(ctx, principal, member, document)
		if err != nil {
			return domain.Decision{}, err
		}
		if !satisfied {
			return domain.Decision{Reason: domain.ReasonNDARequired}, nil
		}
	}

	return domain.Decision{Allowed: true}, nil
}

// ndaSatisfied accepts a personal NDA as soon as it is signed, but a company
// NDA only once countersigned. The company signature covers whoever is a
// member at resolution time, not at signing time.
func (r *resolver) ndaSatisfied(ctx context.Context, principal identitydomain.Principal, member *companydomain.Membership, document documentdomain.Document) (bool, error) {
	individual, err := r.ndaRepo.FindIndividual(ctx, document.RFPID, principal.ID)
	if err != nil {
		return false, err
	}
	if individual != nil &&
		(individual.Status == ndadomain.StatusSigned || individual.Status == ndadomain.StatusApproved) {
		return true, nil
	}

	if member == nil {
		return false, nil
	}
	company, err := r.ndaRepo.FindCompany(ctx, document.RFPID, member.CompanyID)
	if err != nil {
		return false, err
	}
	return company != nil && company.Status == ndadomain.StatusApproved, nil
}
