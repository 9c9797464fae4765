package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/documents"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/operations"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/storage"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/throttle"
	"github.com/Epistemic-Technology/pdf-toolkit/models"
)

const (
	MergedFilename = "merged-document.pdf"
	PDFMIMEType    = "application/pdf"

	// LocalSessionID names the single session of a one-user front end
	LocalSessionID = "local"

	SectionMerge   = "merge"
	SectionSplit   = "split"
	SectionConvert = "convert"
)

// Upload is a file received from a front end
type Upload struct {
	Name string
	Data []byte
}

// Service implements the session bookkeeping shared by the HTTP and MCP front ends.
// Calls for the same session id are serialised; different sessions run concurrently.
type Service struct {
	store   storage.SessionStore
	scratch storage.Scratch
	gate    *throttle.Gate
	log     logger.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serialises one session. refs counts holders and waiters; the
// entry is dropped from Service.locks when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a session service
func NewService(store storage.SessionStore, scratch storage.Scratch, gate *throttle.Gate, log logger.Logger) *Service {
	if gate == nil {
		gate = throttle.NewDefaultGate()
	}
	return &Service{
		store:   store,
		scratch: scratch,
		gate:    gate,
		log:     log.With("session"),
		locks:   make(map[string]*sessionLock),
	}
}

// NewSessionID generates a fresh session identifier
func NewSessionID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return id, nil
}

func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// load returns the session's state, or an empty one for new and expired sessions.
// Files left behind by an expired session are purged.
func (s *Service) load(ctx context.Context, id string) (*models.SessionState, error) {
	state, err := s.store.Load(ctx, id)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, storage.ErrSessionNotFound) {
		return nil, err
	}

	if stale, err := s.store.LoadAny(ctx, id); err == nil {
		s.log.Debug("Session %s expired, starting fresh", id)
		s.purge(ctx, stale.StorageRefs())
	}
	return &models.SessionState{}, nil
}

func (s *Service) purge(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.scratch.Purge(ctx, ref); err != nil {
			s.log.Warn("Failed to purge %s: %v", ref, err)
		}
	}
}

// update runs fn on the session's state under the session lock and saves the
// result. Nothing is saved when fn fails. References fn returns are purged
// once the new state is saved.
func (s *Service) update(ctx context.Context, id, op string, fn func(*models.SessionState) ([]string, error)) error {
	unlock := s.lock(id)
	defer unlock()

	s.log.Info("%s: session %s", op, id)

	state, err := s.load(ctx, id)
	if err != nil {
		s.log.Error("%s failed: %v", op, err)
		return fmt.Errorf("failed to load session: %w", err)
	}

	stale, err := fn(state)
	if err != nil {
		s.log.Error("%s failed: %v", op, err)
		return err
	}

	if err := s.store.Save(ctx, id, state); err != nil {
		s.log.Error("%s failed: %v", op, err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.purge(ctx, stale)

	s.log.Info("%s succeeded: session %s", op, id)
	return nil
}

// view runs fn on a read-only copy of the session's state under the session lock
func (s *Service) view(ctx context.Context, id string, fn func(*models.SessionState) error) error {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.store.Load(ctx, id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		state = &models.SessionState{}
	} else if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	return fn(state)
}

func (s *Service) get(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.scratch.Get(ctx, ref)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %v", operations.ErrNotFound, err)
	}
	return data, err
}

// storeUpload saves an upload in scratch storage and describes it
func (s *Service) storeUpload(ctx context.Context, upload Upload) (*models.UploadRecord, error) {
	name := documents.SecureFilename(upload.Name)
	ref, err := s.scratch.Put(ctx, upload.Data, name)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}
	size := int64(len(upload.Data))
	return &models.UploadRecord{
		Name:          name,
		Size:          size,
		SizeFormatted: documents.FormatFileSize(size),
		StorageRef:    ref,
	}, nil
}

func checkUpload(upload Upload) error {
	if upload.Name == "" {
		return operations.ErrNoFileProvided
	}
	if !documents.AllowedFile(upload.Name) {
		return fmt.Errorf("%w: %s", operations.ErrInvalidExtension, upload.Name)
	}
	return nil
}

// AddMergeFiles appends uploads to the merge list. Every upload is checked
// before any is stored; page counts are read leniently.
func (s *Service) AddMergeFiles(ctx context.Context, id string, uploads []Upload) ([]models.UploadRecord, error) {
	var added []models.UploadRecord
	err := s.update(ctx, id, "AddMergeFiles", func(state *models.SessionState) ([]string, error) {
		if len(uploads) == 0 {
			return nil, operations.ErrNoFileProvided
		}
		for _, upload := range uploads {
			if err := checkUpload(upload); err != nil {
				return nil, err
			}
		}

		for _, upload := range uploads {
			record, err := s.storeUpload(ctx, upload)
			if err != nil {
				return nil, err
			}
			pages, err := documents.PageCount(upload.Data)
			if err != nil {
				s.log.Warn("Could not count pages of %s: %v", record.Name, err)
				pages = 0
			}
			record.Pages = &pages
			added = append(added, *record)
		}
		state.MergeFiles = append(state.MergeFiles, added...)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ReorderMerge moves the merge file at from to position to (both 0-based)
func (s *Service) ReorderMerge(ctx context.Context, id string, from, to int) error {
	return s.update(ctx, id, "ReorderMerge", func(state *models.SessionState) ([]string, error) {
		n := len(state.MergeFiles)
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, fmt.Errorf("%w: invalid indices %d -> %d for %d files", operations.ErrInvalidArgument, from, to, n)
		}
		files := state.MergeFiles
		moved := files[from]
		files = append(files[:from:from], files[from+1:]...)
		files = append(files[:to:to], append([]models.UploadRecord{moved}, files[to:]...)...)
		state.MergeFiles = files
		return nil, nil
	})
}

// ProcessMerge merges the merge list in order and stores the result,
// replacing any previous merged output
func (s *Service) ProcessMerge(ctx context.Context, id string) (*models.OutputFile, error) {
	var output *models.OutputFile
	err := s.update(ctx, id, "ProcessMerge", func(state *models.SessionState) ([]string, error) {
		if len(state.MergeFiles) < 2 {
			return nil, fmt.Errorf("%w: got %d", operations.ErrInsufficientInputs, len(state.MergeFiles))
		}

		pdfs := make([]models.PdfData, 0, len(state.MergeFiles))
		pages := 0
		for _, f := range state.MergeFiles {
			data, err := s.get(ctx, f.StorageRef)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f.Name, err)
			}
			pdfs = append(pdfs, data)
			if f.Pages != nil {
				pages += *f.Pages
			}
		}

		merged, err := throttle.Run(ctx, s.gate, pages, s.log, func(ctx context.Context) (models.PdfData, error) {
			return operations.MergePdfs(pdfs, s.log)
		})
		if err != nil {
			return nil, err
		}

		ref, err := s.scratch.Put(ctx, merged, MergedFilename)
		if err != nil {
			return nil, fmt.Errorf("failed to store merged output: %w", err)
		}

		var stale []string
		if state.Merged != nil {
			stale = append(stale, state.Merged.StorageRef)
		}
		state.Merged = &models.OutputFile{Name: MergedFilename, StorageRef: ref}
		output = state.Merged
		return stale, nil
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

// MergedOutput returns the merged PDF
func (s *Service) MergedOutput(ctx context.Context, id string) (*operations.Export, error) {
	var export *operations.Export
	err := s.view(ctx, id, func(state *models.SessionState) error {
		if state.Merged == nil {
			return fmt.Errorf("%w: no merged file available", operations.ErrNotFound)
		}
		data, err := s.get(ctx, state.Merged.StorageRef)
		if err != nil {
			return err
		}
		export = &operations.Export{Filename: state.Merged.Name, MIMEType: PDFMIMEType, Data: data}
		return nil
	})
	return export, err
}

// SetSplitSource replaces the split source. The upload must be a readable PDF.
func (s *Service) SetSplitSource(ctx context.Context, id string, upload Upload) (*models.UploadRecord, error) {
	var record *models.UploadRecord
	err := s.update(ctx, id, "SetSplitSource", func(state *models.SessionState) ([]string, error) {
		if err := checkUpload(upload); err != nil {
			return nil, err
		}

		r, err := s.storeUpload(ctx, upload)
		if err != nil {
			return nil, err
		}
		pages, err := documents.PageCount(upload.Data)
		if err != nil {
			s.purge(ctx, []string{r.StorageRef})
			return nil, fmt.Errorf("%w: %v", operations.ErrMalformedInput, err)
		}
		r.Pages = &pages

		var stale []string
		if state.SplitFile != nil {
			stale = append(stale, state.SplitFile.StorageRef)
		}
		state.SplitFile = r
		record = r
		return stale, nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ProcessSplit splits the split source and stores every part, replacing the
// previous parts. It returns the part names in order.
func (s *Service) ProcessSplit(ctx context.Context, id string, req models.SplitRequest) ([]string, error) {
	var names []string
	err := s.update(ctx, id, "ProcessSplit", func(state *models.SessionState) ([]string, error) {
		if state.SplitFile == nil {
			return nil, fmt.Errorf("%w: no split source uploaded", operations.ErrNoFileProvided)
		}
		partitioner, err := operations.ParseSplitRequest(req)
		if err != nil {
			return nil, err
		}

		data, err := s.get(ctx, state.SplitFile.StorageRef)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", state.SplitFile.Name, err)
		}
		pages := 0
		if state.SplitFile.Pages != nil {
			pages = *state.SplitFile.Pages
		}

		files, err := throttle.Run(ctx, s.gate, pages, s.log, func(ctx context.Context) ([]models.SplitFile, error) {
			return operations.SplitPdf(data, partitioner, s.log)
		})
		if err != nil {
			return nil, err
		}

		outputs := make([]models.OutputFile, 0, len(files))
		for _, f := range files {
			ref, err := s.scratch.Put(ctx, f.Data, f.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to store %s: %w", f.Name, err)
			}
			outputs = append(outputs, models.OutputFile{Name: f.Name, StorageRef: ref})
			names = append(names, f.Name)
		}

		var stale []string
		for _, f := range state.SplitFiles {
			stale = append(stale, f.StorageRef)
		}
		state.SplitFiles = outputs
		return stale, nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// SplitOutput returns the split part at index (0-based)
func (s *Service) SplitOutput(ctx context.Context, id string, index int) (*operations.Export, error) {
	var export *operations.Export
	err := s.view(ctx, id, func(state *models.SessionState) error {
		if index < 0 || index >= len(state.SplitFiles) {
			return fmt.Errorf("%w: split file %d", operations.ErrNotFound, index)
		}
		part := state.SplitFiles[index]
		data, err := s.get(ctx, part.StorageRef)
		if err != nil {
			return err
		}
		export = &operations.Export{Filename: part.Name, MIMEType: PDFMIMEType, Data: data}
		return nil
	})
	return export, err
}

// SetConvertSource replaces the conversion source. The file is not parsed until extraction.
func (s *Service) SetConvertSource(ctx context.Context, id string, upload Upload) (*models.UploadRecord, error) {
	var record *models.UploadRecord
	err := s.update(ctx, id, "SetConvertSource", func(state *models.SessionState) ([]string, error) {
		if err := checkUpload(upload); err != nil {
			return nil, err
		}
		r, err := s.storeUpload(ctx, upload)
		if err != nil {
			return nil, err
		}

		var stale []string
		if state.ConvertFile != nil {
			stale = append(stale, state.ConvertFile.StorageRef)
		}
		state.ConvertFile = r
		record = r
		return stale, nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ExtractText extracts the conversion source's text and discards any previous edit
func (s *Service) ExtractText(ctx context.Context, id string) (string, error) {
	var text string
	err := s.update(ctx, id, "ExtractText", func(state *models.SessionState) ([]string, error) {
		if state.ConvertFile == nil {
			return nil, fmt.Errorf("%w: no conversion source uploaded", operations.ErrNoFileProvided)
		}
		data, err := s.get(ctx, state.ConvertFile.StorageRef)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", state.ConvertFile.Name, err)
		}

		pages, _ := documents.PageCount(data)
		extracted, err := throttle.Run(ctx, s.gate, pages, s.log, func(ctx context.Context) (string, error) {
			return operations.ExtractText(data, s.log)
		})
		if err != nil {
			return nil, err
		}

		state.ExtractedText = extracted
		state.EditedText = nil
		text = extracted
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// UpdateText saves user edits to the extracted text
func (s *Service) UpdateText(ctx context.Context, id, text string) error {
	return s.update(ctx, id, "UpdateText", func(state *models.SessionState) ([]string, error) {
		state.EditedText = &text
		return nil, nil
	})
}

// ExportText renders the session's text, edited if available, as txt or docx
func (s *Service) ExportText(ctx context.Context, id, format string) (*operations.Export, error) {
	var export *operations.Export
	err := s.view(ctx, id, func(state *models.SessionState) error {
		if state.ExtractedText == "" {
			return fmt.Errorf("%w: no text available", operations.ErrNotFound)
		}
		sourceName := ""
		if state.ConvertFile != nil {
			sourceName = state.ConvertFile.Name
		}
		var err error
		export, err = operations.ExportText(state.Text(), sourceName, format)
		return err
	})
	if err != nil {
		s.log.Error("ExportText failed: %v", err)
		return nil, err
	}
	return export, nil
}

// Text returns the session's current text, edited if available
func (s *Service) Text(ctx context.Context, id string) (string, error) {
	var text string
	err := s.view(ctx, id, func(state *models.SessionState) error {
		text = state.Text()
		if text == "" {
			return fmt.Errorf("%w: no text available", operations.ErrNotFound)
		}
		return nil
	})
	return text, err
}

// Clear discards one section of the session and purges its files.
// An unknown section leaves the session unchanged.
func (s *Service) Clear(ctx context.Context, id, section string) error {
	return s.update(ctx, id, "Clear", func(state *models.SessionState) ([]string, error) {
		switch section {
		case SectionMerge:
			return state.ClearMerge(), nil
		case SectionSplit:
			return state.ClearSplit(), nil
		case SectionConvert:
			return state.ClearConvert(), nil
		default:
			s.log.Warn("Ignoring clear of unknown section %q", section)
			return nil, nil
		}
	})
}

// State returns a snapshot of the session
func (s *Service) State(ctx context.Context, id string) (*models.SessionState, error) {
	var snapshot *models.SessionState
	err := s.view(ctx, id, func(state *models.SessionState) error {
		snapshot = state
		return nil
	})
	return snapshot, err
}

// Info summarises the session for status displays
func (s *Service) Info(ctx context.Context, id string) (*models.SessionInfo, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	info := &models.SessionInfo{
		MergeFiles:    state.MergeFiles,
		HasMerged:     state.Merged != nil,
		SplitFile:     state.SplitFile,
		SplitFiles:    make([]string, 0, len(state.SplitFiles)),
		ConvertFile:   state.ConvertFile,
		HasText:       state.ExtractedText != "",
		HasEditedText: state.EditedText != nil,
	}
	if info.MergeFiles == nil {
		info.MergeFiles = []models.UploadRecord{}
	}
	for _, f := range state.SplitFiles {
		info.SplitFiles = append(info.SplitFiles, f.Name)
	}
	return info, nil
}

// PurgeExpired deletes expired sessions along with their files and returns how many were removed
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	ids, err := s.store.ListExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	purged := 0
	for _, id := range ids {
		removed, err := s.purgeSession(ctx, id)
		if err != nil {
			s.log.Warn("Failed to purge session %s: %v", id, err)
			continue
		}
		if removed {
			purged++
		}
	}
	if purged > 0 {
		s.log.Info("Purged %d expired sessions", purged)
	}
	return purged, nil
}

func (s *Service) purgeSession(ctx context.Context, id string) (bool, error) {
	unlock := s.lock(id)
	defer unlock()

	// The session may have been saved again since it was listed
	if _, err := s.store.Load(ctx, id); err == nil {
		return false, nil
	}

	state, err := s.store.LoadAny(ctx, id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.purge(ctx, state.StorageRefs())
	if err := s.store.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
