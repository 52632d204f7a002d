package access

import "github.com/google/uuid"

// PublicEntry matches documents visible to everyone.
const PublicEntry = "PUBLIC"

// UserEntry is the access-control entry granting a single user visibility.
func UserEntry(userId uuid.UUID) string {
	return "user_id:" + userId.String()
}

// FiltersForUser builds the access-control list a retrieval pass must be
// restricted to: public documents plus the user's own grants. A nil user id
// (unauthenticated internal flows) sees only public documents.
func FiltersForUser(userId *uuid.UUID) []string {
	acl := []string{PublicEntry}
	if userId != nil {
		acl = append(acl, UserEntry(*userId))
	}
	return acl
}
