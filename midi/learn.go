package midi

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-vizmix/params"
	"go-vizmix/store"
)

const routesKey = "midi:routes"

// DefaultLearnTimeout bounds how long a learn session waits for a CC.
const DefaultLearnTimeout = 10 * time.Second

// CustomRoute re-routes an incoming CC number onto another mapping's
// target. The mapping snapshot is taken at learn time; the mapper's default
// table stays untouched.
type CustomRoute struct {
	LearnedCC  int
	OriginalCC int
	Mapping    CCMapping
}

// LearnCallbacks report how a learn session ended. Any field may be nil.
type LearnCallbacks struct {
	OnSuccess func(learnedCC, targetCC int)
	OnCancel  func()
	OnTimeout func()
}

type learnSession struct {
	targetCC  int
	paramName string
	timer     *time.Timer
	callbacks LearnCallbacks
}

// Learn sits in front of the mapper on the raw CC stream. While idle it
// forwards CCs through the learned route table; while listening it consumes
// the next in-range CC to create a new route. Only one session can be
// active at a time.
type Learn struct {
	mapper *Mapper
	st     *store.Store
	log    *logrus.Entry

	mu      sync.Mutex
	routes  map[int]CustomRoute
	session *learnSession

	// Timeout for new sessions. Tests shorten this.
	Timeout time.Duration
}

// NewLearn creates the learn engine and loads any persisted routes.
func NewLearn(mapper *Mapper, st *store.Store) *Learn {
	l := &Learn{
		mapper:  mapper,
		st:      st,
		log:     logrus.WithField("component", "learn"),
		routes:  make(map[int]CustomRoute),
		Timeout: DefaultLearnTimeout,
	}
	if err := l.loadRoutes(); err != nil {
		l.log.WithError(err).Warn("load learn routes failed")
	}
	return l
}

// StartLearning arms a single-shot listener for the next in-range CC and a
// timeout. A session already listening is cancelled first, notifying its
// cancel callback, before the new session starts.
func (l *Learn) StartLearning(targetCC int, paramName string, cb LearnCallbacks) bool {
	if !InRange(targetCC) {
		l.log.WithField("cc", targetCC).Warn("learn target outside CC range")
		return false
	}
	if _, ok := l.mapper.Mapping(targetCC); !ok {
		return false
	}

	l.mu.Lock()
	prev := l.session
	session := &learnSession{
		targetCC:  targetCC,
		paramName: paramName,
		callbacks: cb,
	}
	l.session = session
	session.timer = time.AfterFunc(l.Timeout, func() { l.timeout(session) })
	l.mu.Unlock()

	if prev != nil {
		prev.timer.Stop()
		if prev.callbacks.OnCancel != nil {
			prev.callbacks.OnCancel()
		}
	}

	l.log.WithFields(logrus.Fields{
		"target": targetCC,
		"param":  paramName,
	}).Info("learn session started")
	return true
}

// CancelLearning ends the active session, if any, via its cancel callback.
func (l *Learn) CancelLearning() {
	l.mu.Lock()
	session := l.session
	l.session = nil
	l.mu.Unlock()

	if session == nil {
		return
	}
	session.timer.Stop()
	if session.callbacks.OnCancel != nil {
		session.callbacks.OnCancel()
	}
}

// Listening reports whether a learn session is active, and its target.
func (l *Learn) Listening() (targetCC int, active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == nil {
		return 0, false
	}
	return l.session.targetCC, true
}

func (l *Learn) timeout(session *learnSession) {
	l.mu.Lock()
	if l.session != session {
		// A newer session or a cancel already replaced this one; the
		// timer fired late and must not touch state.
		l.mu.Unlock()
		return
	}
	l.session = nil
	l.mu.Unlock()

	l.log.WithField("target", session.targetCC).Info("learn session timed out")
	if session.callbacks.OnTimeout != nil {
		session.callbacks.OnTimeout()
	}
}

// ProcessCC is the runtime dispatch path for raw CC events. While a learn
// session is listening, the next in-range CC is consumed to create a route;
// out-of-range CCs are warned about and the session keeps listening.
// Otherwise the event is forwarded to the mapper, re-routed through the
// learned table when a route exists for the incoming CC.
func (l *Learn) ProcessCC(cc, value int) {
	l.mu.Lock()
	session := l.session
	if session != nil {
		if !InRange(cc) {
			l.mu.Unlock()
			l.log.WithField("cc", cc).Warn("learn: CC outside range, still listening")
			return
		}
		l.session = nil
		route := CustomRoute{
			LearnedCC:  cc,
			OriginalCC: session.targetCC,
		}
		route.Mapping, _ = l.mapper.Mapping(session.targetCC)
		l.routes[cc] = route
		l.mu.Unlock()

		session.timer.Stop()
		if err := l.saveRoutes(); err != nil {
			l.log.WithError(err).Warn("persist learn route failed")
		}
		l.log.WithFields(logrus.Fields{
			"learned": cc,
			"target":  session.targetCC,
		}).Info("learned CC route")
		if session.callbacks.OnSuccess != nil {
			session.callbacks.OnSuccess(cc, session.targetCC)
		}
		return
	}

	target := cc
	if route, ok := l.routes[cc]; ok {
		target = route.OriginalCC
	}
	l.mu.Unlock()

	l.mapper.HandleCC(target, value)
}

// Routes lists the learned routes in learned-CC order.
func (l *Learn) Routes() []CustomRoute {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]CustomRoute, 0, len(l.routes))
	for _, r := range l.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LearnedCC < out[j].LearnedCC })
	return out
}

// RemoveRoute deletes a single learned route and persists immediately.
func (l *Learn) RemoveRoute(learnedCC int) {
	l.mu.Lock()
	_, ok := l.routes[learnedCC]
	delete(l.routes, learnedCC)
	l.mu.Unlock()

	if ok {
		if err := l.saveRoutes(); err != nil {
			l.log.WithError(err).Warn("persist route removal failed")
		}
	}
}

// ClearRoutes removes every learned route and persists immediately.
func (l *Learn) ClearRoutes() {
	l.mu.Lock()
	l.routes = make(map[int]CustomRoute)
	l.mu.Unlock()

	if err := l.saveRoutes(); err != nil {
		l.log.WithError(err).Warn("persist route clear failed")
	}
}

type routeMappingDoc struct {
	Name     string  `json:"name"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Default  float64 `json:"default"`
	Target   string  `json:"target"`
	Category string  `json:"category"`
}

type routeDoc struct {
	OriginalCC int             `json:"originalCC"`
	Mapping    routeMappingDoc `json:"mapping"`
}

func (l *Learn) saveRoutes() error {
	l.mu.Lock()
	doc := make(map[string]routeDoc, len(l.routes))
	for learned, r := range l.routes {
		doc[strconv.Itoa(learned)] = routeDoc{
			OriginalCC: r.OriginalCC,
			Mapping: routeMappingDoc{
				Name:     r.Mapping.Name,
				Min:      r.Mapping.Min,
				Max:      r.Mapping.Max,
				Default:  r.Mapping.Default,
				Target:   r.Mapping.Target.Path(),
				Category: string(r.Mapping.Category),
			},
		}
	}
	l.mu.Unlock()

	return l.st.Save(routesKey, doc)
}

func (l *Learn) loadRoutes() error {
	var doc map[string]routeDoc
	ok, err := l.st.Load(routesKey, &doc)
	if err != nil || !ok {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, rd := range doc {
		learned, err := strconv.Atoi(key)
		if err != nil || !InRange(learned) || !InRange(rd.OriginalCC) {
			continue
		}
		route := CustomRoute{
			LearnedCC:  learned,
			OriginalCC: rd.OriginalCC,
			Mapping: CCMapping{
				CC:       rd.OriginalCC,
				Name:     rd.Mapping.Name,
				Min:      rd.Mapping.Min,
				Max:      rd.Mapping.Max,
				Default:  rd.Mapping.Default,
				Category: params.Category(rd.Mapping.Category),
			},
		}
		if t, ok := params.TargetForPath(rd.Mapping.Target); ok {
			route.Mapping.Target = t
		}
		l.routes[learned] = route
	}
	return nil
}
