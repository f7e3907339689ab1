package repository

import (
	"context"

	"go.uber.org/zap"
)

type TagRepository struct {
	api    TagAPI
	logger *zap.Logger
}

func NewTagRepository(api TagAPI, logger *zap.Logger) *TagRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagRepository{api: api, logger: logger}
}

// Popular returns the tags the server ranks as popular.
func (r *TagRepository) Popular(ctx context.Context) ([]string, error) {
	tags, err := r.api.PopularTags(ctx)
	if err != nil {
		err = normalize("popular tags", err)
		logFailure(r.logger, "popular tags", err)
		return nil, err
	}
	return tags, nil
}
