package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/core/db"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

type userDocument struct {
	Key              string                    `json:"_key"`
	ExternalID       *string                   `json:"externalId,omitempty"`
	Name             string                    `json:"name"`
	Email            string                    `json:"email"`
	Role             string                    `json:"role"`
	IsBlocked        bool                      `json:"isBlocked"`
	BlockedUntil     *int64                    `json:"blockedUntil"`
	Preference       preferenceDocument        `json:"preference"`
	PushSubscription *pushSubscriptionDocument `json:"pushSubscription"`
	CreatedAt        int64                     `json:"createdAt"`
	UpdatedAt        int64                     `json:"updatedAt"`
}

type preferenceDocument struct {
	Language           string `json:"language"`
	Domain             string `json:"domain"`
	EmailNotifications bool   `json:"emailNotifications"`
}

type pushSubscriptionDocument struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

type userStore struct {
	docs *db.Documents
}

func newUserStore(docs *db.Documents) UserStore {
	return &userStore{docs: docs}
}

func (s *userStore) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var doc userDocument
	if err := s.docs.Get(ctx, db.CollectionUsers, id.Format(userID), &doc); err != nil {
		return nil, mapErr(err)
	}
	return toUserModel(doc)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.first(ctx, `FOR u IN @@users FILTER u.email == @email LIMIT 1 RETURN u`, map[string]any{
		"email": email,
	})
}

func (s *userStore) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return s.first(ctx, `FOR u IN @@users FILTER u.externalId == @externalId LIMIT 1 RETURN u`, map[string]any{
		"externalId": externalID,
	})
}

func (s *userStore) first(ctx context.Context, query string, bindVars map[string]any) (*model.User, error) {
	bindVars["@users"] = db.CollectionUsers
	doc, err := db.First[userDocument](ctx, s.docs, query, bindVars)
	if err != nil {
		return nil, mapErr(err)
	}
	return toUserModel(doc)
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	now := nowUTC()
	user.CreatedAt, user.UpdatedAt = now, now
	return mapErr(s.docs.Insert(ctx, db.CollectionUsers, toUserDocument(user)))
}

func (s *userStore) Patch(ctx context.Context, userID int64, patch UserPatch) (*model.User, error) {
	doc, err := db.First[userDocument](ctx, s.docs, `
		UPDATE @key WITH @patch IN @@users
		OPTIONS { keepNull: false }
		RETURN NEW`, map[string]any{
		"@users": db.CollectionUsers,
		"key":    id.Format(userID),
		"patch":  userPatchFields(patch, nowUTC()),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toUserModel(doc)
}

// userPatchFields maps a patch onto document attributes. A nil blockedUntil
// removes the attribute because the update runs with keepNull disabled.
func userPatchFields(p UserPatch, now time.Time) map[string]any {
	fields := map[string]any{"updatedAt": millis(now)}
	if p.ExternalID != nil {
		fields["externalId"] = *p.ExternalID
	}
	if p.Role != nil {
		fields["role"] = string(*p.Role)
	}
	if p.Preference != nil {
		fields["preference"] = preferenceDocument{
			Language:           p.Preference.Language,
			Domain:             p.Preference.Domain,
			EmailNotifications: p.Preference.EmailNotifications,
		}
	}
	if p.Block != nil {
		fields["isBlocked"] = p.Block.Blocked
		fields["blockedUntil"] = millisPtr(p.Block.Until)
	}
	if p.PushSubscription != nil {
		fields["pushSubscription"] = pushSubscriptionDocument{
			Endpoint: p.PushSubscription.Endpoint,
			P256dh:   p.PushSubscription.P256dh,
			Auth:     p.PushSubscription.Auth,
		}
	}
	return fields
}

func (s *userStore) ListExperts(ctx context.Context, includeBlocked bool) ([]model.User, error) {
	docs, err := db.All[userDocument](ctx, s.docs, `
		FOR u IN @@users
			FILTER u.role == @role AND (@includeBlocked OR u.isBlocked != true)
			SORT u.name, u._key
			RETURN u`, map[string]any{
		"@users":         db.CollectionUsers,
		"role":           string(model.RoleExpert),
		"includeBlocked": includeBlocked,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return toUserModels(docs)
}

func (s *userStore) ExpertLoads(ctx context.Context) ([]model.ExpertLoad, error) {
	type row struct {
		Key  string `json:"key"`
		Open int    `json:"open"`
	}
	rows, err := db.All[row](ctx, s.docs, `
		FOR u IN @@users
			FILTER u.role == @role AND u.isBlocked != true
			LET open = LENGTH(
				FOR q IN @@questions
					FILTER q.assignedExpertId == u._key AND q.status IN @accepting
					RETURN 1
			)
			SORT open, u._key
			RETURN { key: u._key, open: open }`, map[string]any{
		"@users":     db.CollectionUsers,
		"@questions": db.CollectionQuestions,
		"role":       string(model.RoleExpert),
		"accepting":  []string{string(model.QuestionStatusOpen), string(model.QuestionStatusInReview)},
	})
	if err != nil {
		return nil, mapErr(err)
	}

	loads := make([]model.ExpertLoad, 0, len(rows))
	for _, r := range rows {
		expertID, err := id.Parse(r.Key)
		if err != nil {
			return nil, err
		}
		loads = append(loads, model.ExpertLoad{ExpertID: expertID, Open: r.Open})
	}
	return loads, nil
}

func (s *userStore) UnblockExpired(ctx context.Context, now time.Time) (int, error) {
	row, err := db.First[countRow](ctx, s.docs, `
		LET updated = (
			FOR u IN @@users
				FILTER u.isBlocked == true AND u.blockedUntil != null AND u.blockedUntil <= @now
				UPDATE u WITH { isBlocked: false, blockedUntil: null, updatedAt: @now } IN @@users
				OPTIONS { keepNull: false }
				RETURN 1
		)
		RETURN { count: LENGTH(updated) }`, map[string]any{
		"@users": db.CollectionUsers,
		"now":    millis(now),
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return row.Count, nil
}

func (s *userStore) CountExperts(ctx context.Context) (model.ExpertCounts, error) {
	type row struct {
		Total   int `json:"total"`
		Blocked int `json:"blocked"`
	}
	r, err := db.First[row](ctx, s.docs, `
		LET experts = (FOR u IN @@users FILTER u.role == @role RETURN u.isBlocked == true)
		RETURN { total: LENGTH(experts), blocked: LENGTH(experts[* FILTER CURRENT]) }`, map[string]any{
		"@users": db.CollectionUsers,
		"role":   string(model.RoleExpert),
	})
	if err != nil {
		return model.ExpertCounts{}, mapErr(err)
	}
	return model.ExpertCounts{Total: r.Total, Blocked: r.Blocked}, nil
}

func toUserDocument(u *model.User) userDocument {
	doc := userDocument{
		Key:          id.Format(u.ID),
		ExternalID:   u.ExternalID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		IsBlocked:    u.IsBlocked,
		BlockedUntil: millisPtr(u.BlockedUntil),
		Preference: preferenceDocument{
			Language:           u.Preference.Language,
			Domain:             u.Preference.Domain,
			EmailNotifications: u.Preference.EmailNotifications,
		},
		CreatedAt: millis(u.CreatedAt),
		UpdatedAt: millis(u.UpdatedAt),
	}
	if u.PushSubscription != nil {
		doc.PushSubscription = &pushSubscriptionDocument{
			Endpoint: u.PushSubscription.Endpoint,
			P256dh:   u.PushSubscription.P256dh,
			Auth:     u.PushSubscription.Auth,
		}
	}
	return doc
}

func toUserModel(doc userDocument) (*model.User, error) {
	userID, err := id.Parse(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	u := &model.User{
		ID:           userID,
		ExternalID:   doc.ExternalID,
		Name:         doc.Name,
		Email:        doc.Email,
		Role:         model.Role(doc.Role),
		IsBlocked:    doc.IsBlocked,
		BlockedUntil: fromMillisPtr(doc.BlockedUntil),
		Preference: model.Preference{
			Language:           doc.Preference.Language,
			Domain:             doc.Preference.Domain,
			EmailNotifications: doc.Preference.EmailNotifications,
		},
		CreatedAt: fromMillis(doc.CreatedAt),
		UpdatedAt: fromMillis(doc.UpdatedAt),
	}
	if doc.PushSubscription != nil {
		u.PushSubscription = &model.PushSubscription{
			Endpoint: doc.PushSubscription.Endpoint,
			P256dh:   doc.PushSubscription.P256dh,
			Auth:     doc.PushSubscription.Auth,
		}
	}
	return u, nil
}

func toUserModels(docs []userDocument) ([]model.User, error) {
	users := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		u, err := toUserModel(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}
