package action

// Step names as they appear in outcomes and logs.
const (
	stepResolveRequest  = "resolve_request"
	stepEnsureGroup     = "ensure_group"
	stepUnarchiveGroup  = "unarchive_group"
	stepInviteAssignee  = "invite_assignee"
	stepInviteManager   = "invite_manager"
	stepInviteRequester = "invite_requester"
	stepProvisionFolder = "provision_folder"
	stepSetPurpose      = "set_purpose"
	stepSetTopic        = "set_topic"
	stepTeamID          = "team_id"
	stepLinkIssue       = "link_issue"

	stepFindIssue     = "find_issue"
	stepFindProject   = "find_project"
	stepAddCard       = "add_card"
	stepMoveCard      = "move_card"
	stepSyncStatus    = "sync_status"
	stepSyncPriority  = "sync_priority"
	stepSyncCategory  = "sync_category"
	stepClassify      = "classify"
	stepExpedite      = "expedite"
	stepCloseComplete = "close_completed"

	stepResolveStaff = "resolve_staff"
	stepFindGroup    = "find_group"
	stepSetOwner     = "set_owner"
	stepInviteOwner  = "invite_owner"
	stepNotify       = "notify"

	stepHistory    = "history"
	stepTranscript = "post_transcript"
	stepArchive    = "archive_group"
)
