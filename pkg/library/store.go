/**************************************************************************************************
** Package library holds the in-memory photo collection. Every item carries a revision counter:
** background work captures the revision before it starts and its result is committed only if
** the revision is still current, so replaced, removed or re-zoned items never receive stale
** dates, crops or thumbnails.
**************************************************************************************************/
package library

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/ordering"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
)

/**************************************************************************************************
** Options configures a Store. Every field is optional.
**************************************************************************************************/
type Options struct {
	Setting     timezone.Setting
	Direction   ordering.Direction
	Extractor   Extractor
	CropInferer CropInferer
	Thumbnailer Thumbnailer
	OnChange    func()
	Clock       func() time.Time
	Logger      *logrus.Logger
}

/**************************************************************************************************
** Store is the photo collection. All methods are safe for concurrent use; collaborators are
** always called without the store lock held.
**************************************************************************************************/
type Store struct {
	mu        sync.Mutex
	items     []utils.TPhotoItem
	revisions map[string]int
	nextOrder int
	setting   timezone.Setting
	direction ordering.Direction

	extractor   Extractor
	cropper     CropInferer
	thumbnailer Thumbnailer
	onChange    func()
	clock       func() time.Time
	logger      *logrus.Logger
	queue       *Queue
}

/**************************************************************************************************
** NewStore creates an empty store. Without an Extractor, files are read with the metadata
** package head reader.
**
** @param ctx - Context for background processing
** @param opts - Store options
** @return *Store - Empty store
**************************************************************************************************/
func NewStore(ctx context.Context, opts Options) *Store {
	s := &Store{
		revisions:   make(map[string]int),
		setting:     opts.Setting,
		direction:   opts.Direction,
		extractor:   opts.Extractor,
		cropper:     opts.CropInferer,
		thumbnailer: opts.Thumbnailer,
		onChange:    opts.OnChange,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.setting == "" {
		s.setting = timezone.DefaultSetting
	}
	if s.direction == "" {
		s.direction = ordering.Ascending
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.extractor == nil {
		s.extractor = NewMetadataExtractor(s.logger)
	}
	s.queue = newQueue(ctx, s.handle, s.logger)
	return s
}

// Queue returns the processing queue.
func (s *Store) Queue() *Queue {
	return s.queue
}

// Wait blocks until every queued job has been processed.
func (s *Store) Wait() {
	s.queue.Wait()
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// refreshLocked re-runs batch heuristics, which also re-resolves every item.
func (s *Store) refreshLocked() {
	s.items = dates.ApplyBatchHeuristics(s.items, s.setting)
}

// renumberLocked stores the items in timeline order with dense order keys.
func (s *Store) renumberLocked() {
	s.items = ordering.Renumber(ordering.Sort(s.items, s.direction, s.setting))
	s.nextOrder = len(s.items)
}

func (s *Store) indexLocked(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) bumpLocked(id string) int {
	s.revisions[id]++
	return s.revisions[id]
}

func (s *Store) newItemLocked(src utils.TFileSource, order int) utils.TPhotoItem {
	item := utils.TPhotoItem{
		ID:               uuid.NewString(),
		Source:           src,
		ImportedAt:       s.clock(),
		FallbackDate:     src.LastModified(),
		DateSource:       utils.DateSourceUnknown,
		ManualOrderIndex: order,
		OrderKey:         order,
		Crop:             utils.TCrop{X: 0, Y: 0, Size: 1},
		CropMode:         utils.CropModeCover,
	}
	dates.Apply(&item)
	s.revisions[item.ID] = 0
	return item
}

/**************************************************************************************************
** Import appends new items for the given files and queues them for processing. Nil sources
** are skipped.
**
** @param sources - Files to import, in import order
** @return []string - Ids of the new items
**************************************************************************************************/
func (s *Store) Import(sources ...utils.TFileSource) []string {
	s.mu.Lock()
	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == nil {
			continue
		}
		item := s.newItemLocked(src, s.nextOrder)
		s.nextOrder++
		s.items = append(s.items, item)
		ids = append(ids, item.ID)
	}
	s.refreshLocked()
	s.renumberLocked()
	s.mu.Unlock()

	if len(ids) > 0 {
		s.logger.Infof("📥 Imported %d photos", len(ids))
	}
	s.notify()
	s.queue.enqueue(jobProcess, ids...)
	return ids
}

/**************************************************************************************************
** InsertAround inserts new items right before or after a target in timeline order, then
** renumbers the collection.
**
** @param targetID - Item to insert next to
** @param before - Insert before the target instead of after it
** @param sources - Files to insert
** @return []string - Ids of the new items
** @return bool - False if the target does not exist
**************************************************************************************************/
func (s *Store) InsertAround(targetID string, before bool, sources ...utils.TFileSource) ([]string, bool) {
	s.mu.Lock()
	current := ordering.Sort(s.items, s.direction, s.setting)
	index := -1
	for i, item := range current {
		if item.ID == targetID {
			index = i
			break
		}
	}
	if index == -1 {
		s.mu.Unlock()
		return nil, false
	}
	if !before {
		index++
	}

	var inserted []utils.TPhotoItem
	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == nil {
			continue
		}
		item := s.newItemLocked(src, 0)
		inserted = append(inserted, item)
		ids = append(ids, item.ID)
	}

	next := make([]utils.TPhotoItem, 0, len(current)+len(inserted))
	next = append(next, current[:index]...)
	next = append(next, inserted...)
	next = append(next, current[index:]...)
	s.items = ordering.Renumber(next)
	s.nextOrder = len(s.items)
	s.refreshLocked()
	s.mu.Unlock()

	s.logger.WithField("target", targetID).Infof("📥 Inserted %d photos", len(ids))
	s.notify()
	s.queue.enqueue(jobProcess, ids...)
	return ids, true
}

/**************************************************************************************************
** Replace swaps the file behind an item. Dates, candidates, manual date and crop are reset; the
** date override field and the position are kept. In-flight work for the old file is discarded.
**
** @param id - Item to replace
** @param src - New file
** @return bool - False if the item does not exist
**************************************************************************************************/
func (s *Store) Replace(id string, src utils.TFileSource) bool {
	if src == nil {
		return false
	}
	s.mu.Lock()
	i := s.indexLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return false
	}
	s.bumpLocked(id)
	item := s.items[i]
	item.Source = src
	item.ImportedAt = s.clock()
	item.FallbackDate = src.LastModified()
	item.ManualDate = time.Time{}
	item.DateCandidates = nil
	item.Crop = utils.TCrop{X: 0, Y: 0, Size: 1}
	item.CropMode = utils.CropModeCover
	item.CropIsManual = false
	item.AutoCropConfidence = 0
	item.ThumbPath = ""
	dates.Apply(&item)
	s.items[i] = item
	s.refreshLocked()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"id": id, "file": src.Name()}).Info("🔁 Replaced photo")
	s.queue.Cancel(id)
	s.notify()
	s.queue.enqueue(jobProcess, id)
	return true
}

/**************************************************************************************************
** Remove deletes an item. Queued jobs for it are cancelled and running ones become stale.
**************************************************************************************************/
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	delete(s.revisions, id)
	s.refreshLocked()
	s.renumberLocked()
	s.mu.Unlock()

	s.queue.Cancel(id)
	s.notify()
	return true
}

// Clear removes every item.
func (s *Store) Clear() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		ids = append(ids, item.ID)
	}
	s.items = nil
	s.revisions = make(map[string]int)
	s.nextOrder = 0
	s.mu.Unlock()

	for _, id := range ids {
		s.queue.Cancel(id)
	}
	s.notify()
}

// update applies fn to one item under the lock, then re-runs heuristics.
func (s *Store) update(id string, fn func(item *utils.TPhotoItem) bool) bool {
	return s.apply(id, -1, fn)
}

// apply is update guarded by a revision token; a negative rev skips the check.
func (s *Store) apply(id string, rev int, fn func(item *utils.TPhotoItem) bool) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i == -1 || (rev >= 0 && s.revisions[id] != rev) {
		s.mu.Unlock()
		return false
	}
	item := s.items[i].Clone()
	if !fn(&item) {
		s.mu.Unlock()
		return false
	}
	dates.Apply(&item)
	s.items[i] = item
	s.refreshLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

/**************************************************************************************************
** SetManualDate pins the effective date of an item and clears its override field. A zero
** instant removes the manual date.
**************************************************************************************************/
func (s *Store) SetManualDate(id string, date time.Time) bool {
	return s.update(id, func(item *utils.TPhotoItem) bool {
		item.ManualDate = date
		item.DateOverrideField = ""
		return true
	})
}

/**************************************************************************************************
** SetDateOverrideField makes the item trust one candidate field. Fields that are not allowed
** as an override clear the override instead. The manual date is removed either way.
**
** @param id - Item id
** @param field - Candidate field, or "" for none
** @return bool - False if the item does not exist
**************************************************************************************************/
func (s *Store) SetDateOverrideField(id, field string) bool {
	if !dates.IsAllowedOverrideField(field) {
		if field != "" {
			s.logger.WithFields(logrus.Fields{"id": id, "field": field}).Warn("⚠️ Ignoring date override on a field that cannot be trusted")
		}
		field = ""
	}
	return s.update(id, func(item *utils.TPhotoItem) bool {
		item.DateOverrideField = field
		item.ManualDate = time.Time{}
		return true
	})
}

/**************************************************************************************************
** ShiftCalendarDay moves the item's effective date by whole calendar days in the active zone,
** keeping the wall-clock time, and stores the result as the manual date. Items without a date,
** or whose date cannot be shifted, are left unchanged.
**
** @param id - Item id
** @param delta - Days to add, may be negative
** @return bool - True if the date changed
**************************************************************************************************/
func (s *Store) ShiftCalendarDay(id string, delta int) bool {
	return s.update(id, func(item *utils.TPhotoItem) bool {
		if item.EffectiveDate.IsZero() {
			return false
		}
		shifted, ok := timezone.ShiftCalendarDayKeepingTime(item.EffectiveDate, delta, s.setting)
		if !ok {
			s.logger.WithFields(logrus.Fields{"id": id, "delta": delta}).Warn("⚠️ Could not shift calendar day")
			return false
		}
		item.ManualDate = shifted
		item.DateOverrideField = ""
		return true
	})
}

/**************************************************************************************************
** SetCrop stores a user crop. Queued work for the item is cancelled and running work becomes
** stale. An item whose dates were not read yet is queued for full processing again, which keeps
** the manual crop; otherwise only a fresh thumbnail is queued.
**
** @param id - Item id
** @param crop - Square crop in source pixels
** @return bool - False if the item does not exist
**************************************************************************************************/
func (s *Store) SetCrop(id string, crop utils.TCrop) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i == -1 {
		s.mu.Unlock()
		return false
	}
	s.bumpLocked(id)
	s.items[i].Crop = crop
	s.items[i].CropMode = utils.CropModeCover
	s.items[i].CropIsManual = true
	s.items[i].ThumbPath = ""
	pending := s.items[i].DateCandidates == nil
	s.mu.Unlock()

	s.queue.Cancel(id)
	s.notify()
	switch {
	case pending:
		s.queue.enqueue(jobProcess, id)
	case s.thumbnailer != nil:
		s.queue.enqueue(jobThumbnail, id)
	}
	return true
}

/**************************************************************************************************
** SetTimeZone switches the zone used to read offset-less timestamps and calendar days. Every
** item is invalidated and queued for a full re-extraction.
**************************************************************************************************/
func (s *Store) SetTimeZone(setting timezone.Setting) {
	s.mu.Lock()
	s.setting = setting
	ids := make([]string, 0, len(s.items))
	for _, item := range s.items {
		s.bumpLocked(item.ID)
		ids = append(ids, item.ID)
	}
	s.refreshLocked()
	s.mu.Unlock()

	s.logger.Infof("🌐 Time zone set to %s", setting)
	s.notify()
	s.queue.enqueue(jobProcess, ids...)
}

// SetSortDirection changes the calendar-day direction of Sorted.
func (s *Store) SetSortDirection(dir ordering.Direction) {
	s.mu.Lock()
	s.direction = dir
	s.mu.Unlock()
	s.notify()
}

// Setting returns the active time zone setting.
func (s *Store) Setting() timezone.Setting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setting
}

// Direction returns the active sort direction.
func (s *Store) Direction() ordering.Direction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.direction
}

func cloneAll(items []utils.TPhotoItem) []utils.TPhotoItem {
	out := make([]utils.TPhotoItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// Items returns copies of all items in storage order, which is the timeline order of the
// last membership change.
func (s *Store) Items() []utils.TPhotoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.items)
}

// Sorted returns copies of all items in timeline order. Order keys are renumbered to match.
func (s *Store) Sorted() []utils.TPhotoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renumberLocked()
	return cloneAll(s.items)
}

// Get returns a copy of one item.
func (s *Store) Get(id string) (utils.TPhotoItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i == -1 {
		return utils.TPhotoItem{}, false
	}
	return s.items[i].Clone(), true
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Revision returns the current revision token of an item.
func (s *Store) Revision(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev, ok := s.revisions[id]
	return rev, ok
}

// Report runs the batch heuristics analysis on the current collection without changing it.
func (s *Store) Report() dates.HeuristicReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, report := dates.AnalyzeBatch(s.items, s.setting)
	return report
}

/**************************************************************************************************
** MoveWithinDay moves an item up or down inside its calendar day.
**
** @param id - Item id
** @param delta - Positions, negative moves earlier
** @return bool - True if the item moved
**************************************************************************************************/
func (s *Store) MoveWithinDay(id string, delta int) bool {
	s.mu.Lock()
	next, moved := ordering.MoveWithinDay(ordering.Sort(s.items, s.direction, s.setting), id, delta, s.setting)
	if moved {
		s.items = next
		s.nextOrder = len(s.items)
	}
	s.mu.Unlock()

	if moved {
		s.notify()
	}
	return moved
}

/**************************************************************************************************
** MoveWithinDayGroup drops sourceID onto targetID's slot. Both must be in the day group.
**************************************************************************************************/
func (s *Store) MoveWithinDayGroup(sourceID, targetID, group string) bool {
	s.mu.Lock()
	next, moved := ordering.MoveWithinDayGroup(ordering.Sort(s.items, s.direction, s.setting), sourceID, targetID, group, s.setting)
	if moved {
		s.items = next
		s.nextOrder = len(s.items)
	}
	s.mu.Unlock()

	if moved {
		s.notify()
	}
	return moved
}

/**************************************************************************************************
** commit applies the result of background work if rev is still the item's current revision.
** Stale results are dropped and reported as false.
**
** @param id - Item id
** @param rev - Revision captured when the work started
** @param fn - Mutation to apply
** @return bool - True if the result was applied
**************************************************************************************************/
func (s *Store) commit(id string, rev int, fn func(item *utils.TPhotoItem)) bool {
	return s.apply(id, rev, func(item *utils.TPhotoItem) bool {
		fn(item)
		return true
	})
}
