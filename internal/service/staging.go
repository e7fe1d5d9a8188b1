package service

import (
	"context"
	"fmt"

	"pharmapos/backend/internal/domain"
	"pharmapos/backend/internal/staging"
	"pharmapos/backend/internal/store"
)

type editSession struct {
	editor   staging.Editor
	original []domain.Batch
}

// BeginBatchEdit opens the batch editor, starting from the staged batches
// when a change set is already staged.
func (s *Service) BeginBatchEdit(ctx context.Context, medicineID string) (domain.BatchEditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.editors[medicineID]; ok {
		return s.editView(medicineID, session), nil
	}

	med, ok := s.repo.FindMedicine(ctx, medicineID)
	if !ok {
		return domain.BatchEditView{}, fmt.Errorf("%w: medicine %s", store.ErrNotFound, medicineID)
	}

	session := editSession{original: domain.CloneBatches(med.Batches)}
	if staged, ok := s.staged[medicineID]; ok {
		session.original = domain.CloneBatches(staged.Original)
		session.editor = staging.NewEditor(staged.Original, staged.Batches)
	} else {
		session.editor = staging.NewEditor(med.Batches, nil)
	}
	s.editors[medicineID] = session
	return s.editView(medicineID, session), nil
}

func (s *Service) BatchEdit(medicineID string) (domain.BatchEditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(medicineID)
	if err != nil {
		return domain.BatchEditView{}, err
	}
	return s.editView(medicineID, session), nil
}

func (s *Service) session(medicineID string) (editSession, error) {
	session, ok := s.editors[medicineID]
	if !ok {
		return editSession{}, fmt.Errorf("%w: no batch edit open for medicine %s", store.ErrNotFound, medicineID)
	}
	return session, nil
}

func (s *Service) editView(medicineID string, session editSession) domain.BatchEditView {
	view := domain.BatchEditView{
		MedicineID: medicineID,
		Batches:    session.editor.Batches(),
		History:    session.editor.History(s.now()),
		Bill:       session.editor.Bill(),
		Dirty:      session.editor.Dirty(),
	}
	if staged, ok := s.staged[medicineID]; ok {
		view.Staged = &staged
	}
	return view
}

func (s *Service) EditBatchField(medicineID string, index int, req domain.BatchFieldEditRequest) (domain.BatchEditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(medicineID)
	if err != nil {
		return domain.BatchEditView{}, err
	}
	editor, err := session.editor.EditField(index, req.Field, req.Value)
	if err != nil {
		return s.editView(medicineID, session), err
	}
	session.editor = editor
	s.editors[medicineID] = session
	return s.editView(medicineID, session), nil
}

func (s *Service) AddEditBatch(medicineID string) (domain.BatchEditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(medicineID)
	if err != nil {
		return domain.BatchEditView{}, err
	}
	session.editor, _ = session.editor.AddBatch()
	s.editors[medicineID] = session
	return s.editView(medicineID, session), nil
}

func (s *Service) RemoveEditBatch(medicineID string, index int) (domain.BatchEditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(medicineID)
	if err != nil {
		return domain.BatchEditView{}, err
	}
	editor, err := session.editor.RemoveBatch(index)
	if err != nil {
		return s.editView(medicineID, session), err
	}
	session.editor = editor
	s.editors[medicineID] = session
	return s.editView(medicineID, session), nil
}

// StageBatchEdit validates the working copy and writes it to the store.
// Staging is refused when the stored batches moved on since the editor
// opened, e.g. after a sale.
func (s *Service) StageBatchEdit(ctx context.Context, medicineID string) (domain.StagedChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.session(medicineID)
	if err != nil {
		return domain.StagedChangeSet{}, err
	}
	if !session.editor.Dirty() {
		return domain.StagedChangeSet{}, invalid("no batch changes to stage")
	}
	batches, err := session.editor.Stage()
	if err != nil {
		return domain.StagedChangeSet{}, err
	}

	expected := session.original
	if staged, ok := s.staged[medicineID]; ok {
		expected = staged.Batches
	}
	if err := s.repo.Update(ctx, func(c *store.Catalog) error {
		if err := unchanged(c, medicineID, expected); err != nil {
			return err
		}
		return c.ReplaceBatches(medicineID, batches)
	}); err != nil {
		return domain.StagedChangeSet{}, err
	}

	now := s.now()
	set := domain.StagedChangeSet{
		MedicineID: medicineID,
		Batches:    domain.CloneBatches(batches),
		Original:   domain.CloneBatches(session.original),
		Bill:       session.editor.Bill(),
		History:    session.editor.History(now),
		StagedAt:   now,
	}
	s.staged[medicineID] = set
	delete(s.editors, medicineID)
	return set, nil
}

// CancelBatchEdit closes the editor and rolls back a staged change set,
// unless the staged batches have changed since.
func (s *Service) CancelBatchEdit(ctx context.Context, medicineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, editing := s.editors[medicineID]
	staged, hasStaged := s.staged[medicineID]
	if !editing && !hasStaged {
		return fmt.Errorf("%w: no batch edit for medicine %s", store.ErrNotFound, medicineID)
	}

	if hasStaged {
		if err := s.repo.Update(ctx, func(c *store.Catalog) error {
			if err := unchanged(c, medicineID, staged.Batches); err != nil {
				return err
			}
			return c.ReplaceBatches(medicineID, staged.Original)
		}); err != nil {
			return err
		}
		delete(s.staged, medicineID)
	}
	delete(s.editors, medicineID)
	return nil
}

func unchanged(c *store.Catalog, medicineID string, expected []domain.Batch) error {
	med, ok := c.FindMedicine(medicineID)
	if !ok {
		return fmt.Errorf("%w: medicine %s", store.ErrNotFound, medicineID)
	}
	if len(med.Batches) != len(expected) {
		return fmt.Errorf("%w: medicine %s", store.ErrStaleSnapshot, medicineID)
	}
	for i, b := range med.Batches {
		if !sameBatch(b, expected[i]) {
			return fmt.Errorf("%w: medicine %s batch %s", store.ErrStaleSnapshot, medicineID, b.ID)
		}
	}
	return nil
}

func sameBatch(a domain.Batch, b domain.Batch) bool {
	return a.ID == b.ID &&
		a.Expiry == b.Expiry &&
		a.Stock == b.Stock &&
		a.IsNew == b.IsNew &&
		a.Price.Equal(b.Price) &&
		a.PurchasePrice.Equal(b.PurchasePrice) &&
		a.MRP.Equal(b.MRP) &&
		a.GSTRate.Valid == b.GSTRate.Valid &&
		a.GSTRate.Decimal.Equal(b.GSTRate.Decimal)
}
