package service_test

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
	"github.com/vicharanashala/ajrasakha-sub003/internal/service"
	"github.com/vicharanashala/ajrasakha-sub003/internal/store"
)

// memState is the document set behind memDB. Values are copied in and out
// so callers never alias stored data.
type memState struct {
	users         map[int64]model.User
	contexts      map[int64]model.Context
	questions     map[int64]model.Question
	answers       map[int64]model.Answer
	comments      []model.Comment
	requests      map[int64]model.Request
	reroutes      []model.ReRouteHistory
	notifications []model.Notification
	runs          map[int64]model.BalanceRun
	chunkMarks    map[int64]map[int]model.ChunkOutcome
}

func (s memState) clone() memState {
	c := memState{
		users:         make(map[int64]model.User, len(s.users)),
		contexts:      make(map[int64]model.Context, len(s.contexts)),
		questions:     make(map[int64]model.Question, len(s.questions)),
		answers:       make(map[int64]model.Answer, len(s.answers)),
		comments:      slices.Clone(s.comments),
		requests:      make(map[int64]model.Request, len(s.requests)),
		reroutes:      slices.Clone(s.reroutes),
		notifications: slices.Clone(s.notifications),
		runs:          make(map[int64]model.BalanceRun, len(s.runs)),
		chunkMarks:    make(map[int64]map[int]model.ChunkOutcome, len(s.chunkMarks)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.contexts {
		c.contexts[k] = v
	}
	for k, v := range s.questions {
		c.questions[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = cloneAnswer(v)
	}
	for k, v := range s.requests {
		c.requests[k] = cloneRequest(v)
	}
	for k, v := range s.runs {
		c.runs[k] = cloneRun(v)
	}
	for k, v := range s.chunkMarks {
		c.chunkMarks[k] = maps.Clone(v)
	}
	return c
}

func cloneAnswer(a model.Answer) model.Answer {
	a.Reviews = slices.Clone(a.Reviews)
	a.Sources = slices.Clone(a.Sources)
	return a
}

func cloneRequest(r model.Request) model.Request {
	r.Responses = slices.Clone(r.Responses)
	if r.Details != nil {
		d := make(map[string]string, len(r.Details))
		for k, v := range r.Details {
			d[k] = v
		}
		r.Details = d
	}
	return r
}

func cloneRun(r model.BalanceRun) model.BalanceRun {
	r.AppliedChunks = slices.Clone(r.AppliedChunks)
	r.FailedChunks = slices.Clone(r.FailedChunks)
	return r
}

// memDB is an in-memory StoreProvider with transactional rollback.
type memDB struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state memState

	// failNext makes the next call of the named operation fail, e.g. "comments.create".
	failNext map[string]error
	// conflicts makes the next n commits fail with a write-write conflict.
	conflicts   int
	txCalls     int
	markWrites  int
	userPatches []store.UserPatch
}

func newMemDB() *memDB {
	return &memDB{
		state: memState{
			users:     map[int64]model.User{},
			contexts:  map[int64]model.Context{},
			questions: map[int64]model.Question{},
			answers:   map[int64]model.Answer{},
			requests:  map[int64]model.Request{},
			runs:       map[int64]model.BalanceRun{},
			chunkMarks: map[int64]map[int]model.ChunkOutcome{},
		},
		failNext: map[string]error{},
	}
}

func (m *memDB) fail(op string) error {
	if err, ok := m.failNext[op]; ok {
		delete(m.failNext, op)
		return err
	}
	return nil
}

// WithTx serializes transactions and restores the snapshot when fn fails.
func (m *memDB) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.txCalls++
	snapshot := m.state.clone()
	m.mu.Unlock()

	err := fn(m)
	if err == nil && m.conflicts > 0 {
		m.conflicts--
		err = store.ErrConflict
	}
	if err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
	}
	return err
}

func (m *memDB) Users() store.UserStore { return memUsers{m} }
func (m *memDB) Contexts() store.ContextStore { return memContexts{m} }
func (m *memDB) Questions() store.QuestionStore { return memQuestions{m} }
func (m *memDB) Answers() store.AnswerStore { return memAnswers{m} }
func (m *memDB) Comments() store.CommentStore { return memComments{m} }
func (m *memDB) Requests() store.RequestStore { return memRequests{m} }
func (m *memDB) ReRoutes() store.ReRouteStore { return memReRoutes{m} }
func (m *memDB) Notifications() store.NotificationStore { return memNotifications{m} }
func (m *memDB) BalanceRuns() store.BalanceRunStore { return memRuns{m} }

// seed helpers write straight into state.

func (m *memDB) putUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.users[u.ID] = u
}

func (m *memDB) putQuestion(q model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	m.state.questions[q.ID] = q
}

func (m *memDB) putAnswer(a model.Answer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.answers[a.ID] = cloneAnswer(a)
}

func (m *memDB) user(id int64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.users[id]
}

func (m *memDB) question(id int64) model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.questions[id]
}

func (m *memDB) answer(id int64) (model.Answer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state.answers[id]
	return cloneAnswer(a), ok
}

func (m *memDB) commentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.comments)
}

func (m *memDB) reroutes() []model.ReRouteHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.state.reroutes)
}

func (m *memDB) notificationsFor(userID int64) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.state.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func paginate[T any](items []T, p model.Page) model.PageResult[T] {
	total := len(items)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	return model.PageResult[T]{Items: slices.Clone(items[start:end]), Total: total}
}

type memUsers struct{ m *memDB }

func (s memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.state.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s memUsers) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.state.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s memUsers) Create(_ context.Context, user *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("users.create"); err != nil {
		return err
	}
	user.CreatedAt, user.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.m.state.users[user.ID] = *user
	return nil
}

func (s memUsers) Patch(_ context.Context, userID int64, p store.UserPatch) (*model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("users.patch"); err != nil {
		return nil, err
	}
	u, ok := s.m.state.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	s.m.userPatches = append(s.m.userPatches, p)
	if p.ExternalID != nil {
		ext := *p.ExternalID
		u.ExternalID = &ext
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Preference != nil {
		u.Preference = *p.Preference
	}
	if p.Block != nil {
		u.IsBlocked = p.Block.Blocked
		u.BlockedUntil = p.Block.Until
	}
	if p.PushSubscription != nil {
		sub := *p.PushSubscription
		u.PushSubscription = &sub
	}
	u.UpdatedAt = time.Now().UTC()
	s.m.state.users[userID] = u
	return &u, nil
}

func (s memUsers) ListExperts(_ context.Context, includeBlocked bool) ([]model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.User
	for _, u := range s.m.state.users {
		if u.Role == model.RoleExpert && (includeBlocked || !u.IsBlocked) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memUsers) ExpertLoads(_ context.Context) ([]model.ExpertLoad, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var loads []model.ExpertLoad
	for _, u := range s.m.state.users {
		if u.Role != model.RoleExpert || u.IsBlocked {
			continue
		}
		open := 0
		for _, q := range s.m.state.questions {
			if q.AssignedExpertID != nil && *q.AssignedExpertID == u.ID && q.AcceptsAnswers() {
				open++
			}
		}
		loads = append(loads, model.ExpertLoad{ExpertID: u.ID, Open: open})
	}
	sort.Slice(loads, func(i, j int) bool {
		if loads[i].Open != loads[j].Open {
			return loads[i].Open < loads[j].Open
		}
		return loads[i].ExpertID < loads[j].ExpertID
	})
	return loads, nil
}

func (s memUsers) UnblockExpired(_ context.Context, now time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for k, u := range s.m.state.users {
		if u.IsBlocked && u.BlockedUntil != nil && !u.BlockedUntil.After(now) {
			u.IsBlocked, u.BlockedUntil = false, nil
			s.m.state.users[k] = u
			n++
		}
	}
	return n, nil
}

func (s memUsers) CountExperts(_ context.Context) (model.ExpertCounts, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var c model.ExpertCounts
	for _, u := range s.m.state.users {
		if u.Role == model.RoleExpert {
			c.Total++
			if u.IsBlocked {
				c.Blocked++
			}
		}
	}
	return c, nil
}

type memContexts struct{ m *memDB }

func (s memContexts) GetByID(_ context.Context, id int64) (*model.Context, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.state.contexts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s memContexts) Create(_ context.Context, c *model.Context) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c.CreatedAt = time.Now().UTC()
	s.m.state.contexts[c.ID] = *c
	return nil
}

type memQuestions struct{ m *memDB }

func (s memQuestions) GetByID(_ context.Context, id int64) (*model.Question, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q, ok := s.m.state.questions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &q, nil
}

func (s memQuestions) GetByIDs(_ context.Context, ids []int64) ([]model.Question, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Question{}
	for _, id := range ids {
		if q, ok := s.m.state.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s memQuestions) Create(_ context.Context, q *model.Question) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	q.CreatedAt, q.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.m.state.questions[q.ID] = *q
	return nil
}

func (s memQuestions) Update(_ context.Context, q *model.Question) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("questions.update"); err != nil {
		return err
	}
	if _, ok := s.m.state.questions[q.ID]; !ok {
		return store.ErrNotFound
	}
	q.UpdatedAt = time.Now().UTC()
	s.m.state.questions[q.ID] = *q
	return nil
}

func (s memQuestions) sorted(keep func(model.Question) bool) []model.Question {
	var out []model.Question
	for _, q := range s.m.state.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s memQuestions) List(_ context.Context, filter model.QuestionFilter, page model.Page) (model.PageResult[model.Question], error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	items := s.sorted(func(q model.Question) bool {
		return filter.Status == nil || q.Status == *filter.Status
	})
	return paginate(items, page), nil
}

func (s memQuestions) ListUnassigned(_ context.Context, limit int) ([]model.Question, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	items := s.sorted(func(q model.Question) bool {
		return q.AcceptsAnswers() && q.AssignedExpertID == nil
	})
	slices.Reverse(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s memQuestions) ExpireStale(_ context.Context, cutoff, now time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for k, q := range s.m.state.questions {
		if q.Status == model.QuestionStatusOpen && q.TotalAnswersCount == 0 && !q.CreatedAt.After(cutoff) {
			q.Status, q.UpdatedAt = model.QuestionStatusExpired, now
			s.m.state.questions[k] = q
			n++
		}
	}
	return n, nil
}

func (s memQuestions) CountByStatus(_ context.Context) (map[model.QuestionStatus]int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := map[model.QuestionStatus]int{}
	for _, q := range s.m.state.questions {
		out[q.Status]++
	}
	return out, nil
}

type memAnswers struct{ m *memDB }

func (s memAnswers) GetByID(_ context.Context, id int64) (*model.Answer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.state.answers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a = cloneAnswer(a)
	return &a, nil
}

func (s memAnswers) Create(_ context.Context, a *model.Answer) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("answers.create"); err != nil {
		return err
	}
	for _, other := range s.m.state.answers {
		if other.QuestionID == a.QuestionID && other.Iteration == a.Iteration {
			return store.ErrConflict
		}
	}
	a.CreatedAt, a.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.m.state.answers[a.ID] = cloneAnswer(*a)
	return nil
}

func (s memAnswers) Update(_ context.Context, a *model.Answer) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.state.answers[a.ID]; !ok {
		return store.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	s.m.state.answers[a.ID] = cloneAnswer(*a)
	return nil
}

func (s memAnswers) Delete(_ context.Context, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.state.answers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.m.state.answers, id)
	return nil
}

func (s memAnswers) ListByQuestion(_ context.Context, questionID int64) ([]model.Answer, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.Answer{}
	for _, a := range s.m.state.answers {
		if a.QuestionID == questionID {
			out = append(out, cloneAnswer(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Iteration < out[j].Iteration })
	return out, nil
}

func (s memAnswers) MaxIteration(ctx context.Context, questionID int64) (int, error) {
	summary, err := s.Summarize(ctx, questionID)
	return summary.MaxIteration, err
}

func (s memAnswers) Summarize(_ context.Context, questionID int64) (model.AnswerSummary, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var sum model.AnswerSummary
	for _, a := range s.m.state.answers {
		if a.QuestionID != questionID {
			continue
		}
		sum.Count++
		sum.MaxIteration = max(sum.MaxIteration, a.Iteration)
		sum.HasFinal = sum.HasFinal || a.IsFinalAnswer
	}
	return sum, nil
}

func (s memAnswers) ClearFinal(_ context.Context, questionID, keepID int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for k, a := range s.m.state.answers {
		if a.QuestionID == questionID && a.ID != keepID && a.IsFinalAnswer {
			a.IsFinalAnswer = false
			s.m.state.answers[k] = a
		}
	}
	return nil
}

func (s memAnswers) StatsByAuthor(_ context.Context, authorID int64) (model.ExpertStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st := model.ExpertStats{ExpertID: authorID}
	for _, a := range s.m.state.answers {
		if a.HasReviewed(authorID) {
			st.ReviewsGiven++
		}
		if a.AuthorID != authorID {
			continue
		}
		st.AnswersSubmitted++
		if a.IsFinalAnswer {
			st.FinalAnswers++
		}
		switch a.ReviewStatus {
		case model.ReviewStatusApproved:
			st.ApprovedAnswers++
		case model.ReviewStatusRejected:
			st.RejectedAnswers++
		case model.ReviewStatusPending:
			st.PendingAnswers++
		}
	}
	return st, nil
}

type memComments struct{ m *memDB }

func (s memComments) Create(_ context.Context, c *model.Comment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("comments.create"); err != nil {
		return err
	}
	c.CreatedAt = time.Now().UTC()
	s.m.state.comments = append(s.m.state.comments, *c)
	return nil
}

func (s memComments) ListByAnswer(_ context.Context, questionID, answerID int64, page model.Page) (model.PageResult[model.Comment], error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var items []model.Comment
	for _, c := range s.m.state.comments {
		if c.QuestionID == questionID && c.AnswerID == answerID {
			items = append(items, c)
		}
	}
	return paginate(items, page), nil
}

type memRequests struct{ m *memDB }

func (s memRequests) GetByID(_ context.Context, id int64) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.state.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r = cloneRequest(r)
	return &r, nil
}

func (s memRequests) Create(_ context.Context, r *model.Request) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r.CreatedAt, r.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	s.m.state.requests[r.ID] = cloneRequest(*r)
	return nil
}

func (s memRequests) Update(_ context.Context, r *model.Request) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.state.requests[r.ID]; !ok {
		return store.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	s.m.state.requests[r.ID] = cloneRequest(*r)
	return nil
}

func (s memRequests) List(_ context.Context, filter model.RequestFilter, page model.Page) (model.PageResult[model.Request], error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var items []model.Request
	for _, r := range s.m.state.requests {
		if !r.IsDeleted && (filter.Status == nil || r.Status == *filter.Status) {
			items = append(items, cloneRequest(r))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return paginate(items, page), nil
}

func (s memRequests) CountPending(_ context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, r := range s.m.state.requests {
		if !r.IsDeleted && r.Status == model.RequestStatusPending {
			n++
		}
	}
	return n, nil
}

type memReRoutes struct{ m *memDB }

func (s memReRoutes) Append(_ context.Context, h *model.ReRouteHistory) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	h.CreatedAt = time.Now().UTC()
	s.m.state.reroutes = append(s.m.state.reroutes, *h)
	return nil
}

func (s memReRoutes) ListByQuestion(_ context.Context, questionID int64) ([]model.ReRouteHistory, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := []model.ReRouteHistory{}
	for _, h := range s.m.state.reroutes {
		if h.QuestionID == questionID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s memReRoutes) Latest(ctx context.Context, questionID int64) (*model.ReRouteHistory, error) {
	history, _ := s.ListByQuestion(ctx, questionID)
	if len(history) == 0 {
		return nil, store.ErrNotFound
	}
	return &history[len(history)-1], nil
}

func (s memReRoutes) StatsByExpert(_ context.Context, expertID int64) (model.ExpertStats, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st := model.ExpertStats{ExpertID: expertID}
	for _, h := range s.m.state.reroutes {
		if h.ExpertID != expertID {
			continue
		}
		switch h.Status {
		case model.ReRouteStatusPending:
			st.ReRoutesReceived++
		case model.ReRouteStatusExpertRejected:
			st.ReRoutesRejected++
		case model.ReRouteStatusCompleted:
			st.ReRoutesCompleted++
		}
	}
	return st, nil
}

type memNotifications struct{ m *memDB }

func (s memNotifications) Create(_ context.Context, n *model.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("notifications.create"); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.m.state.notifications = append(s.m.state.notifications, *n)
	return nil
}

func (s memNotifications) ListByUser(_ context.Context, userID int64, page model.Page) (model.PageResult[model.Notification], error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var items []model.Notification
	for i := len(s.m.state.notifications) - 1; i >= 0; i-- {
		if n := s.m.state.notifications[i]; n.UserID == userID {
			items = append(items, n)
		}
	}
	return paginate(items, page), nil
}

func (s memNotifications) CountUnread(_ context.Context, userID int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := 0
	for _, n := range s.m.state.notifications {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (s memNotifications) MarkAsRead(_ context.Context, userID, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, n := range s.m.state.notifications {
		if n.ID == id && n.UserID == userID {
			s.m.state.notifications[i].IsRead = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s memNotifications) MarkAllAsRead(_ context.Context, userID int64) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c := 0
	for i, n := range s.m.state.notifications {
		if n.UserID == userID && !n.IsRead {
			s.m.state.notifications[i].IsRead = true
			c++
		}
	}
	return c, nil
}

func (s memNotifications) Delete(_ context.Context, userID, id int64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, n := range s.m.state.notifications {
		if n.ID == id && n.UserID == userID {
			s.m.state.notifications = slices.Delete(s.m.state.notifications, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s memNotifications) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	before := len(s.m.state.notifications)
	s.m.state.notifications = slices.DeleteFunc(s.m.state.notifications, func(n model.Notification) bool {
		return n.CreatedAt.Before(cutoff)
	})
	return before - len(s.m.state.notifications), nil
}

type memRuns struct{ m *memDB }

func (s memRuns) GetByID(_ context.Context, id int64) (*model.BalanceRun, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.state.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r = cloneRun(r)
	marks := s.m.state.chunkMarks[id]
	for _, idx := range slices.Sorted(maps.Keys(marks)) {
		r.RecordChunk(idx, marks[idx])
	}
	r.Settle()
	return &r, nil
}

func (s memRuns) Create(_ context.Context, run *model.BalanceRun) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	run.CreatedAt, run.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	base := cloneRun(*run)
	base.AppliedChunks, base.FailedChunks = []int{}, []int{}
	s.m.state.runs[run.ID] = base
	return nil
}

func (s memRuns) MarkChunk(_ context.Context, runID int64, chunkIndex int, outcome model.ChunkOutcome, _ string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.fail("runs.mark"); err != nil {
		return err
	}
	s.m.markWrites++
	marks := s.m.state.chunkMarks[runID]
	if marks == nil {
		marks = map[int]model.ChunkOutcome{}
		s.m.state.chunkMarks[runID] = marks
	}
	if marks[chunkIndex] == model.ChunkOutcomeApplied && outcome != model.ChunkOutcomeApplied {
		return nil
	}
	marks[chunkIndex] = outcome
	return nil
}

// runDocument returns the stored run without chunk outcomes folded in.
func (m *memDB) runDocument(id int64) model.BalanceRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRun(m.state.runs[id])
}
