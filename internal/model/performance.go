package model

type ExpertStats struct {
	ExpertID          int64 `json:"expert_id,string"`
	AnswersSubmitted  int   `json:"answers_submitted"`
	FinalAnswers      int   `json:"final_answers"`
	ApprovedAnswers   int   `json:"approved_answers"`
	RejectedAnswers   int   `json:"rejected_answers"`
	PendingAnswers    int   `json:"pending_answers"`
	ReviewsGiven      int   `json:"reviews_given"`
	ReRoutesReceived  int   `json:"reroutes_received"`
	ReRoutesRejected  int   `json:"reroutes_rejected"`
	ReRoutesCompleted int   `json:"reroutes_completed"`
}

type Dashboard struct {
	QuestionsByStatus map[QuestionStatus]int `json:"questions_by_status"`
	TotalExperts      int                    `json:"total_experts"`
	BlockedExperts    int                    `json:"blocked_experts"`
	PendingRequests   int                    `json:"pending_requests"`
}

type ExpertCounts struct {
	Total   int
	Blocked int
}
