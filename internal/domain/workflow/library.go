package workflow

import (
	"fmt"
	"strings"
)

// ParseFolderRoles validates the roles a resource folder is shown to. At least
// one role is required and admins always see every folder, so ADMIN is refused.
func ParseFolderRoles(raw []string) ([]Role, error) {
	set := NewRoleSet()
	for _, value := range raw {
		role, err := ParseRole(value)
		if err != nil {
			return nil, err
		}
		if !role.QualificationScoped() {
			return nil, Invalid("visible_to", "must list LEARNER, ASSESSOR, IQA or EQA")
		}
		set.Add(role)
	}
	if len(set) == 0 {
		return nil, Invalid("visible_to", "at least one role is required")
	}
	return set.Sorted(), nil
}

// ThreadSubject is the key messages are grouped under. Reply prefixes are
// dropped so a reply lands in the thread it answers.
func ThreadSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	for len(subject) >= 3 && strings.EqualFold(subject[:3], "re:") {
		subject = strings.TrimSpace(subject[3:])
	}
	return subject
}

func MessageReceivedNotice(senderName string, subject string) string {
	return fmt.Sprintf("New message from %s: %s", senderName, subject)
}
