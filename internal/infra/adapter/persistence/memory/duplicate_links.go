package memory

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

func (s *Store) PutDuplicateLink(ctx context.Context, link *entity.DuplicateLink) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.links {
		if existing.OriginalArticleID == link.OriginalArticleID && existing.DuplicateArticleID == link.DuplicateArticleID {
			return entity.ErrAlreadyDuplicate
		}
	}

	s.nextLinkID++
	link.ID = s.nextLinkID
	link.CreatedAt = time.Now()
	cp := *link
	s.links = append(s.links, &cp)
	return nil
}

func (s *Store) ListDuplicateLinks(ctx context.Context, limit int) ([]*entity.DuplicateLink, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}

	out := make([]*entity.DuplicateLink, 0, len(s.links))
	for i := len(s.links) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.links[i]
		out = append(out, &cp)
	}
	return out, nil
}
