// Service layer of the internal package question.

package question

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/internal/sse"
	"Quorum/internal/user"
	"Quorum/pkg/log"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/rs/xid"
)

// Default page size of the questions listing API.
const defaultPageLimit = 10

// Hard ceiling on the page size a client can request.
const maxPageLimit = 50

// Service layer of internal package question which encapsulates question logic of Quorum.
type Service interface {
	// Validates and stores an incoming question, then fires the stream publish trigger.
	create(ctx context.Context, question entity.Question) (entity.Question, error)
	// Returns active questions filtered and paginated by the incoming query.
	list(ctx context.Context, query entity.QuestionSearch) ([]entity.Question, entity.Pagination, error)
	// Applies a like / dislike / remove reaction of an user on a question.
	react(ctx context.Context, questionID, username, action string) (entity.Question, error)
	// Soft-deletes a question on behalf of an admin.
	remove(ctx context.Context, questionID, adminUsername string) error
	// Flips the verification flag of a question.
	setverified(ctx context.Context, questionID string, verified bool) error
	// Aggregates platform statistics for the admin dashboard.
	stats(ctx context.Context) (entity.AdminStats, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	questionRepo Repository
	userRepo     user.Repository
	sseService   sse.Service
	publisher    sse.Publisher
	logger       log.Logger
}

func NewService(questionRepo Repository, userRepo user.Repository, sseService sse.Service, publisher sse.Publisher, logger log.Logger) Service {
	return service{questionRepo, userRepo, sseService, publisher, logger}
}

func (s service) create(ctx context.Context, question entity.Question) (entity.Question, error) {
	if strings.TrimSpace(question.Name) == "" {
		question.Name = "Anonymous"
	}
	// Validate the received question data against validation-tags mentioned in its entity
	if _, valerr := govalidator.ValidateStruct(question); valerr != nil {
		return entity.Question{}, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	question.ID = xid.New().String()
	question.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	question.Likes, question.Dislikes = []string{}, []string{}
	question.IsDeleted, question.IsVerified = false, false
	question.DeletedBy, question.DeletedAt = "", ""

	if dberr := s.questionRepo.SetQuestion(ctx, s.logger, question); dberr != nil {
		// Error occured in SetQuestion()
		return entity.Question{}, dberr
	}

	// Fire-and-forget broadcast to stream subscribers, a publish failure must
	// never fail the submission itself. Detached context, the request's one
	// dies as soon as the response is written.
	go s.publisher.Publish(context.Background(), question)

	return question, nil
}

func (s service) list(ctx context.Context, query entity.QuestionSearch) ([]entity.Question, entity.Pagination, error) {
	if _, valerr := govalidator.ValidateStruct(query); valerr != nil {
		return nil, entity.Pagination{}, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	all, dberr := s.questionRepo.GetAllQuestions(ctx, s.logger)
	if dberr != nil {
		// Error occured in GetAllQuestions()
		return nil, entity.Pagination{}, dberr
	}

	filtered := []entity.Question{}
	search := strings.ToLower(strings.TrimSpace(query.Search))
	for _, question := range all {
		if question.IsDeleted {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(question.Question), search) &&
			!strings.Contains(strings.ToLower(question.Name), search) {
			continue
		}
		if query.Category != "" && !strings.EqualFold(question.Category, query.Category) {
			continue
		}
		if query.VerificationStatus == "verified" && !question.IsVerified {
			continue
		}
		if query.VerificationStatus == "unverified" && question.IsVerified {
			continue
		}
		filtered = append(filtered, question)
	}

	// Newest first, CreatedAt is RFC3339 so plain string ordering works
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt > filtered[j].CreatedAt
	})

	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	} else if limit > maxPageLimit {
		limit = maxPageLimit
	}

	totalItems := len(filtered)
	totalPages := (totalItems + limit - 1) / limit
	start := (page - 1) * limit
	end := start + limit
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	pagination := entity.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNextPage: end < totalItems,
		HasPrevPage: page > 1 && totalItems > 0,
	}
	return filtered[start:end], pagination, nil
}

func (s service) react(ctx context.Context, questionID, username, action string) (entity.Question, error) {
	reaction := entity.Reaction{Action: action}
	if _, valerr := govalidator.ValidateStruct(reaction); valerr != nil {
		return entity.Question{}, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	question, dberr := s.questionRepo.GetQuestion(ctx, s.logger, questionID)
	if dberr != nil {
		// Error occured in GetQuestion()
		return entity.Question{}, dberr
	} else if question.IsDeleted {
		return entity.Question{}, errors.NotFound("Question not available")
	}

	// An user holds at most one reaction per question, clear both lists first
	likes := removeFromList(question.Likes, username)
	dislikes := removeFromList(question.Dislikes, username)
	switch action {
	case "like":
		likes = append(likes, username)
	case "dislike":
		dislikes = append(dislikes, username)
	}

	if dberr := s.questionRepo.UpdateReactions(ctx, s.logger, questionID, likes, dislikes); dberr != nil {
		// Error occured in UpdateReactions()
		return entity.Question{}, dberr
	}
	question.Likes, question.Dislikes = likes, dislikes
	return question, nil
}

func (s service) remove(ctx context.Context, questionID, adminUsername string) error {
	available, dberr := s.questionRepo.HasQuestion(ctx, s.logger, questionID)
	if dberr != nil {
		// Error occured in HasQuestion()
		return dberr
	} else if !available {
		return errors.NotFound("Question not available")
	}
	return s.questionRepo.SetDeleted(ctx, s.logger, questionID, adminUsername)
}

func (s service) setverified(ctx context.Context, questionID string, verified bool) error {
	available, dberr := s.questionRepo.HasQuestion(ctx, s.logger, questionID)
	if dberr != nil {
		// Error occured in HasQuestion()
		return dberr
	} else if !available {
		return errors.NotFound("Question not available")
	}
	return s.questionRepo.SetVerified(ctx, s.logger, questionID, verified)
}

func (s service) stats(ctx context.Context) (entity.AdminStats, error) {
	questions, dberr := s.questionRepo.GetAllQuestions(ctx, s.logger)
	if dberr != nil {
		// Error occured in GetAllQuestions()
		return entity.AdminStats{}, dberr
	}
	users, dberr := s.userRepo.GetAllUsers(ctx, s.logger)
	if dberr != nil {
		// Error occured in GetAllUsers()
		return entity.AdminStats{}, dberr
	}

	result := entity.AdminStats{}
	for _, question := range questions {
		if question.IsDeleted {
			result.DeletedQuestions++
			continue
		}
		result.TotalQuestions++
		result.TotalLikes += len(question.Likes)
		result.TotalDislikes += len(question.Dislikes)
	}
	for _, u := range users {
		if u.Verified {
			result.VerifiedUsers++
		} else {
			result.UnverifiedUsers++
		}
	}
	result.ActiveStreamConns = s.sseService.ClientCount(ctx)
	return result, nil
}

// Helper to drop an username from a reaction list.
func removeFromList(list []string, username string) []string {
	result := make([]string, 0, len(list))
	for _, member := range list {
		if member != username {
			result = append(result, member)
		}
	}
	return result
}
