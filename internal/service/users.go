package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PepaPanda/uu-backend-project/internal/apperr"
	"github.com/PepaPanda/uu-backend-project/internal/auth"
	"github.com/PepaPanda/uu-backend-project/internal/authz"
	"github.com/PepaPanda/uu-backend-project/internal/models"
	"github.com/PepaPanda/uu-backend-project/internal/mutation"
	"github.com/PepaPanda/uu-backend-project/internal/store"
)

const compensationTimeout = 5 * time.Second

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(id models.Identity) (string, error)
}

type UserService struct {
	base
	tokens TokenIssuer
}

func NewUserService(o Options, tokens TokenIssuer) *UserService {
	return &UserService{base: newBase(o), tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, req models.CreateUserRequest) (string, error) {
	const op = "user.register"
	first, err := cleanName(op, "first_name", req.FirstName, 100)
	if err != nil {
		return "", err
	}
	last, err := cleanName(op, "last_name", req.LastName, 100)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", apperr.Wrap(apperr.KindStorage, op, "Failed to hash password", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Invitations:  []models.Invitation{},
		CreatedAt:    s.now(),
	}
	_, err = s.proto.Run(ctx, op, mutation.Expect{DuplicateMsg: "User with this email already exists"},
		func(ctx context.Context) (store.Result, error) {
			return s.store.InsertUser(ctx, user)
		})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Login checks the credentials and returns a signed token for the user.
func (s *UserService) Login(ctx context.Context, email, password string) (string, models.Identity, error) {
	const op = "auth.login"
	user, err := s.store.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", models.Identity{}, apperr.NotFound(op, msgUserNotFound)
	}
	if err != nil {
		return "", models.Identity{}, apperr.Wrap(apperr.KindStorage, op, "Failed to load user", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", models.Identity{}, apperr.AuthFailed(op, "Invalid credentials")
	}

	id := user.Identity()
	token, err := s.tokens.GenerateToken(id)
	if err != nil {
		return "", models.Identity{}, apperr.Wrap(apperr.KindStorage, op, "Failed to generate token", err)
	}
	return token, id, nil
}

func (s *UserService) Details(ctx context.Context, actor models.Identity) (*models.User, error) {
	return s.loadUser(ctx, "user.details", actor.UserID)
}

// EditDetails renames the actor and re-syncs the copies of their name held
// in shopping lists. The sync is best effort.
func (s *UserService) EditDetails(ctx context.Context, actor models.Identity, userID, firstName, lastName string) (*models.User, error) {
	const op = "user.edit"
	if !authz.CanActAsSelf(actor.UserID, userID) {
		return nil, apperr.Forbidden(op, "You can only edit your own profile")
	}
	first, err := cleanName(op, "first_name", firstName, 100)
	if err != nil {
		return nil, err
	}
	last, err := cleanName(op, "last_name", lastName, 100)
	if err != nil {
		return nil, err
	}

	_, err = s.proto.Run(ctx, op, mutation.Expect{NoMatchMsg: msgUserNotFound}, func(ctx context.Context) (store.Result, error) {
		return s.store.UpdateUserNames(ctx, userID, first, last)
	})
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	out, err := s.proto.Run(ctx, "user.rename_member", mutation.Expect{}, func(ctx context.Context) (store.Result, error) {
		return s.store.RenameMember(ctx, userID, user.FullName())
	})
	if err != nil && out != mutation.NoMatch {
		s.log.WithError(err).WithField("user_id", userID).Warn("member names left stale after profile edit")
	}
	return user, nil
}

func (s *UserService) Lists(ctx context.Context, actor models.Identity, userID string) ([]*models.ShoppingList, error) {
	const op = "user.lists"
	if !authz.CanActAsSelf(actor.UserID, userID) {
		return nil, apperr.Forbidden(op, "You can only view your own shopping lists")
	}
	lists, err := s.store.FindListsByMember(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, op, "Failed to fetch shopping lists", err)
	}
	if lists == nil {
		lists = []*models.ShoppingList{}
	}
	return lists, nil
}

func (s *UserService) Invitations(ctx context.Context, actor models.Identity) ([]models.Invitation, error) {
	user, err := s.loadUser(ctx, "user.invitations", actor.UserID)
	if err != nil {
		return nil, err
	}
	if user.Invitations == nil {
		return []models.Invitation{}, nil
	}
	return user.Invitations, nil
}

// AcceptInvitation consumes the actor's invitation to listID and then adds
// them to the list's members. The two writes hit different documents, so a
// failure between them leaves the invitation consumed without membership.
// That window is logged for reconciliation. Recovery is a fresh invitation,
// issued automatically only when RestoreInvitations is enabled.
func (s *UserService) AcceptInvitation(ctx context.Context, actor models.Identity, listID string) error {
	const op = "user.accept_invitation"
	user, err := s.loadUser(ctx, op, actor.UserID)
	if err != nil {
		return err
	}
	var inv models.Invitation
	found := false
	for _, i := range user.Invitations {
		if i.ListID == listID {
			inv, found = i, true
			break
		}
	}
	if !found {
		return apperr.NotFound(op, "Invitation not found")
	}

	_, err = s.proto.Run(ctx, op+".consume", mutation.Expect{
		NoMatchMsg:   "Invitation not found",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Invitation was not removed",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.RemoveInvitation(ctx, user.ID, listID)
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		s.reconcile(user, inv, "request cancelled before membership was granted", true)
		return apperr.Storage(op, err)
	}

	member := models.MemberRef{UserID: user.ID, Name: user.FullName(), Email: user.Email}
	out, err := s.proto.Run(ctx, op+".join", mutation.Expect{
		NoMatch:      apperr.KindDuplicate,
		NoMatchMsg:   "Already a member of this shopping list",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Membership was not stored",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.AddMember(ctx, listID, member)
	})

	switch out {
	case mutation.Applied:
		s.publish(ctx, models.NotificationMemberAdded, listID, user.ID, user.ID, member)
		return nil
	case mutation.NoMatch:
		// Either the list is gone or the user joined through another request.
		list, lerr := s.loadList(ctx, op, listID)
		if lerr != nil {
			s.reconcile(user, inv, "membership state unknown after join", false)
			return lerr
		}
		if list == nil {
			s.reconcile(user, inv, "list deleted before membership was granted", false)
			return apperr.NotFound(op, msgListNotFound)
		}
		if list.IsMember(user.ID) {
			return nil
		}
		s.reconcile(user, inv, "join matched nothing on an existing list", true)
		return err
	default:
		s.reconcile(user, inv, "membership write failed", true)
		return err
	}
}

// reconcile logs an invitation that was consumed without granting
// membership. When restore is set and RestoreInvitations is enabled it also
// re-issues the invitation so the user can accept again.
func (s *UserService) reconcile(user *models.User, inv models.Invitation, reason string, restore bool) {
	entry := s.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"list_id":    inv.ListID,
		"invited_by": inv.InvitedBy,
		"reason":     reason,
	})
	if !restore || !s.restoreInvitations {
		entry.WithField("invitation_restored", false).Warn("reconciliation: invitation consumed without membership")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()
	res, err := s.store.AddInvitation(ctx, user.Email, inv)
	restored := err == nil && mutation.Classify(res, err) == mutation.Applied
	entry = entry.WithField("invitation_restored", restored)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("reconciliation: invitation consumed without membership")
}

func (s *UserService) DeclineInvitation(ctx context.Context, actor models.Identity, listID string) error {
	const op = "user.decline_invitation"
	_, err := s.proto.Run(ctx, op, mutation.Expect{
		NoMatchMsg:   "Invitation not found",
		Unchanged:    apperr.KindStorage,
		UnchangedMsg: "Invitation was not removed",
	}, func(ctx context.Context) (store.Result, error) {
		return s.store.RemoveInvitation(ctx, actor.UserID, listID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.NotificationInvitationDropped, listID, actor.UserID, actor.UserID, nil)
	return nil
}
