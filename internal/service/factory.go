package service

import (
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/llm"
)

// Deps are the collaborators the services are built from. Optional ones may be nil.
type Deps struct {
	Stores   StoreProvider
	TxRunner TxRunner

	Identity    IdentityProvider
	AdminEmails []string
	Push        PushPublisher
	Chunks      ChunkQueue
	Index       QuestionIndex
	LLM         llm.Client
	Embedder    llm.Embedder

	Paging                Paging
	ExpiryWindow          time.Duration
	NotificationRetention time.Duration
	ApprovalThreshold     int
}

type Services struct {
	auth          AuthService
	users         UserService
	contexts      ContextService
	questions     QuestionService
	answers       AnswerService
	comments      CommentService
	requests      RequestService
	reroutes      ReRouteService
	notifications NotificationService
	performance   PerformanceService
	workload      WorkloadService
	translation   TranslationService
}

func NewServices(d Deps) *Services {
	notifications := NewNotificationService(d.Stores, d.Push, d.Paging, d.NotificationRetention)

	return &Services{
		auth:          NewAuthService(d.Stores, d.Identity, d.AdminEmails),
		users:         NewUserService(d.Stores),
		contexts:      NewContextService(d.Stores),
		questions:     NewQuestionService(d.Stores, d.Index, d.Paging, d.ExpiryWindow),
		answers:       NewAnswerService(d.Stores, d.TxRunner, notifications, d.Embedder, d.ApprovalThreshold),
		comments:      NewCommentService(d.Stores, d.TxRunner, notifications, d.Paging),
		requests:      NewRequestService(d.Stores, d.TxRunner, notifications, d.Paging),
		reroutes:      NewReRouteService(d.Stores, d.TxRunner, notifications),
		notifications: notifications,
		performance:   NewPerformanceService(d.Stores),
		workload:      NewWorkloadService(d.Stores, d.TxRunner, notifications, d.Chunks),
		translation:   NewTranslationService(d.LLM),
	}
}

func (s *Services) Auth() AuthService { return s.auth }
func (s *Services) Users() UserService { return s.users }
func (s *Services) Contexts() ContextService { return s.contexts }
func (s *Services) Questions() QuestionService { return s.questions }
func (s *Services) Answers() AnswerService { return s.answers }
func (s *Services) Comments() CommentService { return s.comments }
func (s *Services) Requests() RequestService { return s.requests }
func (s *Services) ReRoutes() ReRouteService { return s.reroutes }
func (s *Services) Notifications() NotificationService { return s.notifications }
func (s *Services) Performance() PerformanceService { return s.performance }
func (s *Services) Workload() WorkloadService { return s.workload }
func (s *Services) Translation() TranslationService { return s.translation }
