package repository

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Leads         LeadRepository
	LeadHistory   LeadHistoryRepository
	Comments      CommentRepository
	FollowUps     FollowUpRepository
	Notifications NotificationRepository
	Quotes        QuoteRepository
	Drafts        DraftRepository
	Users         UserRepository
}
