package domain

import (
	"sort"
	"time"
)

// Имена полей, которые попадают в FieldsChanged
const (
	FieldStatus             = "status"
	FieldSummary            = "summary"
	FieldDescription        = "description"
	FieldTestingDone        = "testing_done"
	FieldBranch             = "branch"
	FieldBugsClosed         = "bugs_closed"
	FieldTargetGroups       = "target_groups"
	FieldTargetPeople       = "target_people"
	FieldScreenshots        = "screenshots"
	FieldScreenshotCaptions = "screenshot_captions"
	FieldFiles              = "files"
	FieldFileCaptions       = "file_captions"
	FieldDiff               = "diff"
)

// ChangeItem - элемент реляционного поля в истории изменений
type ChangeItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CaptionChange - изменение подписи одного скриншота или файла
type CaptionChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// FieldChange - изменение одного поля.
// Скалярные поля используют Old/New, реляционные - OldItems/NewItems/Added/Removed,
// подписи - Captions, diff - только Added.
type FieldChange struct {
	Old          []string                `json:"old,omitempty"`
	New          []string                `json:"new,omitempty"`
	OldItems     []ChangeItem            `json:"old_items,omitempty"`
	NewItems     []ChangeItem            `json:"new_items,omitempty"`
	Added        []ChangeItem            `json:"added,omitempty"`
	Removed      []ChangeItem            `json:"removed,omitempty"`
	DisplayField string                  `json:"display_field,omitempty"`
	Captions     map[int64]CaptionChange `json:"captions,omitempty"`
}

// ChangeDescription - запись истории о том, что изменилось при публикации или смене статуса.
// После публикации запись не меняется, кроме текста закрытия (см. CloseReviewRequest).
type ChangeDescription struct {
	ID              int64
	ReviewRequestID *int64
	Text            string
	Public          bool
	Timestamp       time.Time
	FieldsChanged   map[string]FieldChange
}

// NewChangeDescription создаёт пустую запись
func NewChangeDescription(text string, public bool) *ChangeDescription {
	return &ChangeDescription{
		Text:          text,
		Public:        public,
		Timestamp:     time.Now().UTC(),
		FieldsChanged: make(map[string]FieldChange),
	}
}

func (c *ChangeDescription) fields() map[string]FieldChange {
	if c.FieldsChanged == nil {
		c.FieldsChanged = make(map[string]FieldChange)
	}
	return c.FieldsChanged
}

// RecordFieldChange записывает изменение скалярного поля
func (c *ChangeDescription) RecordFieldChange(name, oldValue, newValue string) {
	c.fields()[name] = FieldChange{
		Old: []string{oldValue},
		New: []string{newValue},
	}
}

// RecordListChange записывает изменение поля-списка (например, bugs_closed)
func (c *ChangeDescription) RecordListChange(name string, oldValues, newValues []string) {
	c.fields()[name] = FieldChange{
		Old: append([]string{}, oldValues...),
		New: append([]string{}, newValues...),
	}
}

// RecordRelationChange записывает изменение реляционного поля.
// Сохраняются полные коллекции до и после, а также добавленные и удалённые элементы.
func (c *ChangeDescription) RecordRelationChange(name, displayField string, oldItems, newItems []ChangeItem) {
	oldSet := make(map[int64]struct{}, len(oldItems))
	for _, item := range oldItems {
		oldSet[item.ID] = struct{}{}
	}
	newSet := make(map[int64]struct{}, len(newItems))
	for _, item := range newItems {
		newSet[item.ID] = struct{}{}
	}

	change := FieldChange{
		OldItems:     append([]ChangeItem{}, oldItems...),
		NewItems:     append([]ChangeItem{}, newItems...),
		DisplayField: displayField,
	}
	for _, item := range newItems {
		if _, ok := oldSet[item.ID]; !ok {
			change.Added = append(change.Added, item)
		}
	}
	for _, item := range oldItems {
		if _, ok := newSet[item.ID]; !ok {
			change.Removed = append(change.Removed, item)
		}
	}

	c.fields()[name] = change
}

// RecordCaptionChanges записывает агрегированные изменения подписей одним полем
func (c *ChangeDescription) RecordCaptionChanges(name string, captions map[int64]CaptionChange) {
	if len(captions) == 0 {
		return
	}
	c.fields()[name] = FieldChange{Captions: captions}
}

// RecordDiffAdded записывает добавленный diffset. Diff никогда не удаляется публикацией.
func (c *ChangeDescription) RecordDiffAdded(item ChangeItem) {
	c.fields()[FieldDiff] = FieldChange{Added: []ChangeItem{item}}
}

// HasChanges сообщает, записано ли хоть одно поле
func (c *ChangeDescription) HasChanges() bool {
	return len(c.FieldsChanged) > 0
}

// ChangedFields возвращает отсортированные имена изменённых полей
func (c *ChangeDescription) ChangedFields() []string {
	names := make([]string, 0, len(c.FieldsChanged))
	for name := range c.FieldsChanged {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finalize отмечает запись опубликованной
func (c *ChangeDescription) Finalize(now time.Time) {
	c.Timestamp = now
	c.Public = true
}
