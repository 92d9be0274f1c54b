package library

import (
	"context"

	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
)

func (s *Store) handle(ctx context.Context, j job) {
	switch j.kind {
	case jobThumbnail:
		s.mu.Lock()
		rev, ok := s.revisions[j.id]
		i := s.indexLocked(j.id)
		s.mu.Unlock()
		if !ok || i == -1 {
			return
		}
		s.thumbnail(ctx, j.id, rev)
	default:
		s.process(ctx, j.id)
	}
}

/**************************************************************************************************
** process runs the full pipeline for one item: date extraction, crop inference unless the crop
** is manual, then thumbnail generation. The revision is bumped once at the start and checked
** after every step; a stale step ends the pipeline.
**
** @param ctx - Context for the collaborators
** @param id - Item id
**************************************************************************************************/
func (s *Store) process(ctx context.Context, id string) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return
	}
	rev := s.bumpLocked(id)
	item := s.items[i].Clone()
	setting := s.setting
	s.mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{"id": id, "file": item.Name(), "revision": rev})

	candidates := s.extractor.Extract(ctx, item.Source, setting)
	if !s.commit(id, rev, func(it *utils.TPhotoItem) {
		it.FallbackDate = it.Source.LastModified()
		it.DateCandidates = candidates
	}) {
		log.Debug("Discarding stale date candidates")
		return
	}
	log.Debugf("📅 Extracted %d date candidates", len(candidates))

	if s.cropper != nil {
		result, err := s.cropper.InferCrop(ctx, item.Source)
		if err != nil {
			log.WithError(err).Debug("No crop proposal")
		} else if !s.commit(id, rev, func(it *utils.TPhotoItem) {
			if it.CropIsManual {
				return
			}
			it.Crop = result.Crop
			it.CropMode = result.Mode
			it.AutoCropConfidence = result.Confidence
		}) {
			log.Debug("Discarding stale crop proposal")
			return
		}
	}

	s.thumbnail(ctx, id, rev)
}

func (s *Store) thumbnail(ctx context.Context, id string, rev int) {
	if s.thumbnailer == nil {
		return
	}
	item, ok := s.Get(id)
	if !ok {
		return
	}
	log := s.logger.WithFields(logrus.Fields{"id": id, "file": item.Name(), "revision": rev})

	path, err := s.thumbnailer.Thumbnail(ctx, item)
	if err != nil {
		log.WithError(err).Warn("⚠️ Could not render thumbnail")
		return
	}
	if !s.commit(id, rev, func(it *utils.TPhotoItem) { it.ThumbPath = path }) {
		log.Debug("Discarding stale thumbnail")
		return
	}
	log.Debugf("🖼️ Thumbnail written to %s", path)
}
