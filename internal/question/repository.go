// question repository encapsulates the data access logic (interactions with the DB) related to questions in Quorum.

package question

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/db"
	"Quorum/pkg/log"
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// SetQuestion adds the question into the DB.
	SetQuestion(ctx context.Context, logger log.Logger, question entity.Question) error
	// GetQuestion returns the question with the given ID if it exists.
	GetQuestion(ctx context.Context, logger log.Logger, questionID string) (entity.Question, error)
	// GetAllQuestions returns every question saved in the DB, deleted ones included.
	GetAllQuestions(ctx context.Context, logger log.Logger) ([]entity.Question, error)
	// HasQuestion returns a boolean depending on the question's availability.
	HasQuestion(ctx context.Context, logger log.Logger, questionID string) (bool, error)
	// UpdateReactions overwrites the like and dislike lists of a question.
	UpdateReactions(ctx context.Context, logger log.Logger, questionID string, likes, dislikes []string) error
	// SetDeleted soft-deletes a question and records the admin who did it.
	SetDeleted(ctx context.Context, logger log.Logger, questionID, adminUsername string) error
	// SetVerified flips the verification flag of a question.
	SetVerified(ctx context.Context, logger log.Logger, questionID string, verified bool) error
}

// repository struct of question Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of question repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns nil if the question got successfully added into the DB.
func (r repository) SetQuestion(ctx context.Context, logger log.Logger, question entity.Question) error {
	likes, dislikes, mrsherr := marshalReactions(question.Likes, question.Dislikes)
	if mrsherr != nil {
		logger.WithCtx(ctx).Error().Err(mrsherr).Msg("Error occured during marshalling reactions in question.SetQuestion")
		return errors.InternalServerError("")
	}
	// Transaction to set question data
	key := "question:" + question.ID
	txferr := func(key string) error {
		txf := func(tx *redis.Tx) error {
			// Operation is commited only if the watched keys remain unchanged
			_, dberr := r.db.Client().TxPipelined(ctx, func(client redis.Pipeliner) error {
				client.HSet(ctx, key, "id", question.ID)
				client.HSet(ctx, key, "name", question.Name)
				client.HSet(ctx, key, "category", question.Category)
				client.HSet(ctx, key, "question", question.Question)
				client.HSet(ctx, key, "created_at", question.CreatedAt)
				client.HSet(ctx, key, "likes", likes)
				client.HSet(ctx, key, "dislikes", dislikes)
				client.HSet(ctx, key, "is_deleted", question.IsDeleted)
				client.HSet(ctx, key, "is_verified", question.IsVerified)
				return nil
			})
			return dberr
		}
		for i := 0; i < r.db.GetMaxRetries(); i++ {
			dberr := r.db.Client().Watch(ctx, txf, key)
			if dberr == nil {
				return nil
			} else if dberr == redis.TxFailedErr {
				// Optimistic lock lost. Retry.
				continue
			}
			// Return any other error.
			return dberr
		}
		return errors.New("SetQuestion reached maximum number of retries")
	}(key)
	if txferr != nil {
		logger.WithCtx(ctx).Error().Err(txferr).Msg("Error occured in SetQuestion transaction")
		return errors.InternalServerError("")
	}

	// Add question to question:index for listing
	dberr := r.db.Client().SAdd(ctx, "question:index", question.ID).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during setting question index")
		return errors.InternalServerError("")
	}
	return nil
}

// Returns the question data object if a question with the given ID is found in the DB.
func (r repository) GetQuestion(ctx context.Context, logger log.Logger, questionID string) (entity.Question, error) {
	question := entity.Question{}
	available, dberr := r.HasQuestion(ctx, logger, questionID)
	if dberr != nil {
		// Issues in HasQuestion()
		return question, dberr
	} else if !available {
		return question, errors.NotFound("Question not available")
	}
	if dberr := r.db.Client().HGetAll(ctx, "question:"+questionID).Scan(&question); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in question.GetQuestion")
		return question, errors.InternalServerError("")
	}
	// Reaction lists live in the hash as JSON encoded arrays
	likes, dislikes, dberr := r.getReactions(ctx, logger, questionID)
	if dberr != nil {
		return question, dberr
	}
	question.Likes, question.Dislikes = likes, dislikes
	return question, nil
}

// Returns every question found through question:index.
func (r repository) GetAllQuestions(ctx context.Context, logger log.Logger) ([]entity.Question, error) {
	questionIDs, dberr := r.db.Client().SMembers(ctx, "question:index").Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SMembers() in question.GetAllQuestions")
		return []entity.Question{}, errors.InternalServerError("")
	}
	questions := []entity.Question{}
	for _, questionID := range questionIDs {
		question, err := r.GetQuestion(ctx, logger, questionID)
		if err != nil {
			if errresp, ok := err.(errors.ErrorResponse); ok && errresp.Status == 404 {
				// Index member without a hash, skip the stray entry
				continue
			}
			return questions, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// Returns true if a question with the given ID exists in Quorum.
func (r repository) HasQuestion(ctx context.Context, logger log.Logger, questionID string) (bool, error) {
	available, dberr := r.db.Client().Exists(ctx, "question:"+questionID).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Exists() in question.HasQuestion")
		return false, errors.InternalServerError("")
	}
	return available != 0, nil
}

// Returns nil if the reaction lists got successfully replaced in the DB.
func (r repository) UpdateReactions(ctx context.Context, logger log.Logger, questionID string, likes, dislikes []string) error {
	likesJSON, dislikesJSON, mrsherr := marshalReactions(likes, dislikes)
	if mrsherr != nil {
		logger.WithCtx(ctx).Error().Err(mrsherr).Msg("Error occured during marshalling reactions in question.UpdateReactions")
		return errors.InternalServerError("")
	}
	key := "question:" + questionID
	txferr := func(key string) error {
		txf := func(tx *redis.Tx) error {
			_, dberr := r.db.Client().TxPipelined(ctx, func(client redis.Pipeliner) error {
				client.HSet(ctx, key, "likes", likesJSON)
				client.HSet(ctx, key, "dislikes", dislikesJSON)
				return nil
			})
			return dberr
		}
		for i := 0; i < r.db.GetMaxRetries(); i++ {
			dberr := r.db.Client().Watch(ctx, txf, key)
			if dberr == nil {
				return nil
			} else if dberr == redis.TxFailedErr {
				// Optimistic lock lost. Retry.
				continue
			}
			return dberr
		}
		return errors.New("UpdateReactions reached maximum number of retries")
	}(key)
	if txferr != nil {
		logger.WithCtx(ctx).Error().Err(txferr).Msg("Error occured in UpdateReactions transaction")
		return errors.InternalServerError("")
	}
	return nil
}

// Returns nil if the question got successfully marked deleted in the DB.
func (r repository) SetDeleted(ctx context.Context, logger log.Logger, questionID, adminUsername string) error {
	key := "question:" + questionID
	_, dberr := r.db.Client().TxPipelined(ctx, func(client redis.Pipeliner) error {
		client.HSet(ctx, key, "is_deleted", true)
		client.HSet(ctx, key, "deleted_by", adminUsername)
		client.HSet(ctx, key, "deleted_at", time.Now().UTC().Format(time.RFC3339))
		return nil
	})
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of TxPipelined in question.SetDeleted")
		return errors.InternalServerError("")
	}
	return nil
}

// Returns nil if the verification flag got successfully updated in the DB.
func (r repository) SetVerified(ctx context.Context, logger log.Logger, questionID string, verified bool) error {
	dberr := r.db.Client().HSet(ctx, "question:"+questionID, "is_verified", verified).Err()
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HSet() in question.SetVerified")
		return errors.InternalServerError("")
	}
	return nil
}

// Helper to fetch and decode the JSON encoded reaction lists of a question.
func (r repository) getReactions(ctx context.Context, logger log.Logger, questionID string) ([]string, []string, error) {
	fields, dberr := r.db.Client().HMGet(ctx, "question:"+questionID, "likes", "dislikes").Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HMGet() in question.getReactions")
		return nil, nil, errors.InternalServerError("")
	}
	decode := func(raw interface{}) []string {
		list := []string{}
		str, ok := raw.(string)
		if !ok || str == "" {
			return list
		}
		if mrsherr := json.Unmarshal([]byte(str), &list); mrsherr != nil {
			// A malformed list falls back to empty instead of failing the read
			logger.WithCtx(ctx).Warn().Err(mrsherr).Msg("Couldn't decode reaction list for question " + questionID)
			return []string{}
		}
		return list
	}
	if len(fields) != 2 {
		return []string{}, []string{}, nil
	}
	return decode(fields[0]), decode(fields[1]), nil
}

// Helper to encode reaction lists for hash storage.
func marshalReactions(likes, dislikes []string) (string, string, error) {
	if likes == nil {
		likes = []string{}
	}
	if dislikes == nil {
		dislikes = []string{}
	}
	likesJSON, mrsherr := json.Marshal(likes)
	if mrsherr != nil {
		return "", "", mrsherr
	}
	dislikesJSON, mrsherr := json.Marshal(dislikes)
	if mrsherr != nil {
		return "", "", mrsherr
	}
	return string(likesJSON), string(dislikesJSON), nil
}
