package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/filter"
)

type AnnotatorApp struct {
	Session *Session
	Config  *Config
}

func (a *AnnotatorApp) documentName() string {
	if a.Config == nil {
		return ""
	}
	return a.Config.Project.Name
}

type lemmaRequest struct {
	Lemma      string `json:"lemma"`
	Msa        string `json:"msa"`
	Normalized string `json:"normalized"`
}

// stateResponse reports the undo/redo availability after a mutation
type stateResponse struct {
	Action  string             `json:"action,omitempty"`
	Target  *domain.Annotation `json:"annotation,omitempty"`
	CanUndo bool               `json:"canUndo"`
	CanRedo bool               `json:"canRedo"`
	Dirty   bool               `json:"dirty"`
}

func (a *AnnotatorApp) state(r *http.Request, action *domain.HistoryAction) stateResponse {
	if cache := GetRequestCache(r.Context()); cache != nil {
		cache.Invalidate()
	}
	snap := snapshotFor(r, a.Session)
	ret := stateResponse{CanUndo: snap.CanUndo, CanRedo: snap.CanRedo, Dirty: snap.Dirty}
	if action != nil {
		ret.Action = string(action.Kind)
		annotation := action.Annotation
		ret.Target = &annotation
	}
	return ret
}

func wordIndexParam(r *http.Request) (int, error) {
	w, err := strconv.Atoi(r.PathValue("w"))
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid word index %q", r.PathValue("w"))
	}
	return w, nil
}

type countRow struct {
	Label string
	Count int
}

type lemmaRow struct {
	Index int
	domain.LemmaMapping
}

type entryRow struct {
	Label   string
	Target  string
	Summary string
	Note    string
}

func targetLabel(t domain.Target) string {
	switch t.Type {
	case domain.TargetChar:
		return fmt.Sprintf("%d[%d:%d]", t.WordIndex, t.CharStart, t.CharEnd)
	case domain.TargetSpan:
		return fmt.Sprintf("%d-%d", t.StartWord, t.EndWord)
	}
	return strconv.Itoa(t.WordIndex)
}

func (a *AnnotatorApp) overviewPage(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFor(r, a.Session)

	counts := make([]countRow, 0, len(domain.AnnotationTypes))
	for _, t := range domain.AnnotationTypes {
		counts = append(counts, countRow{Label: "type_" + string(t), Count: snap.Counts[t]})
	}
	lemmas := make([]lemmaRow, 0, len(snap.Confirmed))
	for _, idx := range snap.Confirmed {
		lemmas = append(lemmas, lemmaRow{Index: idx, LemmaMapping: snap.LemmasByWord[idx]})
	}

	err := RenderPageWithRequest(r, w, "index.html", map[string]any{
		"Title":    Localize(r.Context(), "overview_title", nil),
		"Document": a.documentName(),
		"Counts":   counts,
		"Lemmas":   lemmas,
		"Dirty":    snap.Dirty,
	})
	if err != nil {
		log.Printf("error: http: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (a *AnnotatorApp) wordPage(w http.ResponseWriter, r *http.Request) {
	idx, err := wordIndexParam(r)
	if err != nil {
		http.NotFoundHandler().ServeHTTP(w, r)
		return
	}
	snap := snapshotFor(r, a.Session)
	var entries []entryRow
	for _, ann := range a.Session.WordAnnotations(idx) {
		entry := entryRow{
			Label:   "type_" + string(ann.Type),
			Target:  targetLabel(ann.Target),
			Summary: describeValue(ann.Value),
		}
		if note, ok := ann.Value.(domain.NoteValue); ok {
			entry.Note = note.Text
		}
		entries = append(entries, entry)
	}
	err = RenderPageWithRequest(r, w, "word.html", map[string]any{
		"Title":   Localize(r.Context(), "word_title", map[string]any{"Index": idx}),
		"Entries": entries,
		"Dirty":   snap.Dirty,
	})
	if err != nil {
		log.Printf("error: http: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// listAnnotations returns the annotation set, narrowed by the where query parameter when given
func (a *AnnotatorApp) listAnnotations(w http.ResponseWriter, r *http.Request) {
	set := snapshotFor(r, a.Session).Set
	if where := r.URL.Query().Get("where"); where != "" {
		f, err := filter.Compile(where)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		selected, err := f.Select(set.Annotations)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		set.Annotations = selected
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *AnnotatorApp) listLemmas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshotFor(r, a.Session).Lemmas)
}

func (a *AnnotatorApp) wordAnnotations(w http.ResponseWriter, r *http.Request) {
	idx, err := wordIndexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Session.WordAnnotations(idx))
}

// addAnnotation stores the annotation in the request body, replacing any annotation with the same id
func (a *AnnotatorApp) addAnnotation(w http.ResponseWriter, r *http.Request) {
	var ann domain.Annotation
	if err := json.NewDecoder(r.Body).Decode(&ann); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("while decoding annotation: %w", err))
		return
	}
	action, err := a.Session.Add(ann)
	if errors.Is(err, domain.ErrInvalidAnnotation) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, &action))
}

func (a *AnnotatorApp) removeAnnotation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !a.Session.Remove(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("no annotation with id %q", id))
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, nil))
}

func (a *AnnotatorApp) confirmLemma(w http.ResponseWriter, r *http.Request) {
	idx, err := wordIndexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req lemmaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("while decoding request: %w", err))
		return
	}
	action, err := a.Session.ConfirmLemma(idx, req.Lemma, req.Msa, req.Normalized)
	if errors.Is(err, domain.ErrInvalidAnnotation) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, &action))
}

func (a *AnnotatorApp) unconfirmLemma(w http.ResponseWriter, r *http.Request) {
	idx, err := wordIndexParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !a.Session.UnconfirmLemma(idx) {
		writeError(w, http.StatusNotFound, fmt.Errorf("word %d has no confirmed lemma", idx))
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, nil))
}

func (a *AnnotatorApp) undo(w http.ResponseWriter, r *http.Request) {
	action, ok := a.Session.Undo()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("nothing to undo"))
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, &action))
}

func (a *AnnotatorApp) redo(w http.ResponseWriter, r *http.Request) {
	action, ok := a.Session.Redo()
	if !ok {
		writeError(w, http.StatusConflict, errors.New("nothing to redo"))
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, &action))
}

func (a *AnnotatorApp) save(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Save(r.Context()); err != nil {
		log.Printf("error: http: while saving: %s", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a.state(r, nil))
}

func (a *AnnotatorApp) GetHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.overviewPage)
	mux.HandleFunc("GET /words/{w}", a.wordPage)
	mux.HandleFunc("GET /favicon.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		fmt.Fprint(w, GetFavicon())
	})

	mux.HandleFunc("GET /api/annotations", a.listAnnotations)
	mux.HandleFunc("POST /api/annotations", a.addAnnotation)
	mux.HandleFunc("DELETE /api/annotations/{id}", a.removeAnnotation)
	mux.HandleFunc("GET /api/words/{w}", a.wordAnnotations)
	mux.HandleFunc("GET /api/lemmas", a.listLemmas)
	mux.HandleFunc("POST /api/lemmas/{w}", a.confirmLemma)
	mux.HandleFunc("DELETE /api/lemmas/{w}", a.unconfirmLemma)
	mux.HandleFunc("POST /api/undo", a.undo)
	mux.HandleFunc("POST /api/redo", a.redo)
	mux.HandleFunc("POST /api/save", a.save)

	var handler http.Handler = mux
	handler = requestCacheMiddleware(handler)
	handler = i18nMiddleware(handler)
	handler = HTTPLogger(handler)
	return handler
}
