package db

import (
	arango "github.com/vicharanashala/ajrasakha-sub003/common/arangodb"
)

const (
	CollectionUsers         = "users"
	CollectionContexts      = "contexts"
	CollectionQuestions     = "questions"
	CollectionAnswers       = "answers"
	CollectionComments      = "comments"
	CollectionRequests      = "requests"
	CollectionReRoutes      = "reroute_history"
	CollectionNotifications = "notifications"
	CollectionBalanceRuns   = "balance_runs"
	CollectionBalanceChunks = "balance_chunks"
)

// Collections lists every collection together with the indexes the
// repositories rely on.
func Collections() []arango.CollectionSpec {
	return []arango.CollectionSpec{
		{Name: CollectionUsers, Indexes: []arango.IndexSpec{
			{Name: "idx_users_email", Fields: []string{"email"}, Unique: true},
			{Name: "idx_users_external_id", Fields: []string{"externalId"}, Unique: true, Sparse: true},
			{Name: "idx_users_role", Fields: []string{"role", "isBlocked"}},
		}},
		{Name: CollectionContexts},
		{Name: CollectionQuestions, Indexes: []arango.IndexSpec{
			{Name: "idx_questions_status_created", Fields: []string{"status", "createdAt"}},
			{Name: "idx_questions_assigned", Fields: []string{"assignedExpertId"}, Sparse: true},
		}},
		{Name: CollectionAnswers, Indexes: []arango.IndexSpec{
			{Name: "idx_answers_question_iteration", Fields: []string{"questionId", "iteration"}, Unique: true},
			{Name: "idx_answers_author", Fields: []string{"authorId"}},
		}},
		{Name: CollectionComments, Indexes: []arango.IndexSpec{
			{Name: "idx_comments_thread", Fields: []string{"questionId", "answerId", "createdAt"}},
		}},
		{Name: CollectionRequests, Indexes: []arango.IndexSpec{
			{Name: "idx_requests_status", Fields: []string{"isDeleted", "status", "createdAt"}},
		}},
		{Name: CollectionReRoutes, Indexes: []arango.IndexSpec{
			{Name: "idx_reroutes_question", Fields: []string{"questionId", "createdAt"}},
			{Name: "idx_reroutes_expert", Fields: []string{"expertId", "status"}},
		}},
		{Name: CollectionNotifications, Indexes: []arango.IndexSpec{
			{Name: "idx_notifications_user", Fields: []string{"userId", "createdAt"}},
		}},
		{Name: CollectionBalanceRuns},
		{Name: CollectionBalanceChunks, Indexes: []arango.IndexSpec{
			{Name: "idx_balance_chunks_run", Fields: []string{"runId", "chunkIndex"}},
		}},
	}
}

// CollectionNames returns the names from Collections in declaration order.
func CollectionNames() []string {
	specs := Collections()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
