package lemma

import (
	"slices"
	"testing"
	"time"

	"github.com/motheatensoul/tei-scribe/internal/domain"
	"github.com/motheatensoul/tei-scribe/internal/store"
)

func newFacade(t *testing.T) *Facade {
	t.Helper()
	return NewFacade(store.New(0), "")
}

func TestFacade_ConfirmLemma(t *testing.T) {
	t.Run("builds the canonical annotation", func(t *testing.T) {
		f := newFacade(t)
		action, err := f.ConfirmLemma(3, "hundr", "nsm", "hundr")
		if err != nil {
			t.Fatalf("ConfirmLemma() error = %v", err)
		}
		if action.Kind != domain.ActionAdd {
			t.Errorf("Kind = %s, want add", action.Kind)
		}
		a := action.Annotation
		if a.ID != "lemma-3" || a.Type != domain.TypeLemma || a.Target != domain.WordTarget(3) {
			t.Errorf("annotation = %+v", a)
		}
		if v := a.Value.(domain.LemmaValue); v.Lemma != "hundr" || v.Msa != "nsm" || v.Normalized != "hundr" {
			t.Errorf("value = %+v", v)
		}
	})

	t.Run("re-confirming is an update", func(t *testing.T) {
		f := newFacade(t)
		f.ConfirmLemma(3, "hund", "nsm", "")
		action, err := f.ConfirmLemma(3, "hundr", "nsm", "")
		if err != nil {
			t.Fatalf("ConfirmLemma() error = %v", err)
		}

		if action.Kind != domain.ActionUpdate {
			t.Fatalf("Kind = %s, want update", action.Kind)
		}
		if got := action.PreviousAnnotation.Value.(domain.LemmaValue).Lemma; got != "hund" {
			t.Errorf("previous lemma = %q, want hund", got)
		}
		if got := f.Store().GetForWord(3); len(got) != 1 {
			t.Fatalf("word 3 has %d annotations, want 1", len(got))
		}
		if m, _ := f.GetLemmaMapping(3); m.Lemma != "hundr" {
			t.Errorf("GetLemmaMapping(3) = %+v", m)
		}
	})

	t.Run("at most one lemma per word", func(t *testing.T) {
		f := newFacade(t)
		for _, l := range []string{"a", "b", "c", "d"} {
			f.ConfirmLemma(5, l, "x", "")
		}
		if got := f.Store().GetByType(domain.TypeLemma); len(got) != 1 {
			t.Errorf("lemma annotations = %d, want 1", len(got))
		}
	})

	t.Run("rejects empty lemmas and negative words", func(t *testing.T) {
		f := newFacade(t)
		if _, err := f.ConfirmLemma(1, "  ", "x", ""); err == nil {
			t.Error("expected error for empty lemma")
		}
		if _, err := f.ConfirmLemma(-1, "a", "x", ""); err == nil {
			t.Error("expected error for negative word index")
		}
		if f.Store().Len() != 0 {
			t.Error("rejected confirmations should not be stored")
		}
	})

	t.Run("silent confirmation skips history", func(t *testing.T) {
		f := newFacade(t)
		f.ConfirmLemmaSilently(1, "a", "x", "")
		if f.Store().CanUndo() {
			t.Error("CanUndo() should be false")
		}
		if !f.IsLemmaConfirmed(1) {
			t.Error("word 1 should be confirmed")
		}
	})

	t.Run("records author and keeps creation time", func(t *testing.T) {
		f := NewFacade(store.New(0), "scribe")
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		modified := created.Add(time.Hour)
		f.now = func() time.Time { return created }
		f.ConfirmLemma(2, "a", "x", "")
		f.now = func() time.Time { return modified }
		action, _ := f.ConfirmLemma(2, "b", "x", "")

		md := action.Annotation.Metadata
		if md == nil || md.Author != "scribe" {
			t.Fatalf("Metadata = %+v", md)
		}
		if !md.Created.Equal(created) || !md.Modified.Equal(modified) {
			t.Errorf("Created = %v, Modified = %v", md.Created, md.Modified)
		}
	})
}

func TestFacade_UnconfirmLemma(t *testing.T) {
	f := newFacade(t)
	f.ConfirmLemma(3, "hund", "nsm", "")

	if _, ok := f.UnconfirmLemma(3); !ok {
		t.Fatal("UnconfirmLemma(3) should succeed")
	}
	if got := f.Store().GetForWord(3); len(got) != 0 {
		t.Fatalf("GetForWord(3) = %v, want empty", got)
	}
	if f.IsLemmaConfirmed(3) {
		t.Error("word 3 should not be confirmed")
	}

	action, ok := f.Store().Undo()
	if !ok || action.Kind != domain.ActionRemove {
		t.Fatalf("Undo() = %+v, %v", action, ok)
	}
	got := f.Store().GetForWord(3)
	if len(got) != 1 || got[0].Value.(domain.LemmaValue).Lemma != "hund" {
		t.Errorf("GetForWord(3) after undo = %+v", got)
	}

	t.Run("unconfirming an unconfirmed word is a no-op", func(t *testing.T) {
		if _, ok := f.UnconfirmLemma(42); ok {
			t.Error("UnconfirmLemma(42) should report nothing happened")
		}
	})
}

func TestFacade_LemmaMappings(t *testing.T) {
	f := newFacade(t)
	f.ConfirmLemma(1, "a", "x", "á")
	f.ConfirmLemma(12, "b", "y", "")

	mappings := f.LemmaMappings()
	if len(mappings) != 2 {
		t.Fatalf("LemmaMappings() = %v", mappings)
	}
	if mappings["1"] != (domain.LemmaMapping{Lemma: "a", Msa: "x", Normalized: "á"}) {
		t.Errorf("mappings[1] = %+v", mappings["1"])
	}
	if _, ok := f.GetLemmaMapping(2); ok {
		t.Error("GetLemmaMapping(2) should report no lemma")
	}
}

func TestFacade_LoadLegacyConfirmations(t *testing.T) {
	f := newFacade(t)
	result := f.LoadLegacyConfirmations(map[string]domain.LemmaMapping{
		"1":   {Lemma: "a", Msa: "x"},
		"bad": {Lemma: "b", Msa: "y"},
		"2":   {Lemma: "c", Msa: "z"},
	})

	if result.Imported != 2 {
		t.Errorf("Imported = %d, want 2", result.Imported)
	}
	if !slices.Equal(result.Skipped, []string{"bad"}) {
		t.Errorf("Skipped = %v, want [bad]", result.Skipped)
	}

	lemmas := f.Store().GetByType(domain.TypeLemma)
	if len(lemmas) != 2 {
		t.Fatalf("lemma annotations = %d, want 2", len(lemmas))
	}
	if !f.IsLemmaConfirmed(1) || !f.IsLemmaConfirmed(2) {
		t.Error("words 1 and 2 should be confirmed")
	}
	if lemmas[0].Metadata == nil || lemmas[0].Metadata.Source != Source {
		t.Errorf("Metadata = %+v, want legacy source", lemmas[0].Metadata)
	}

	t.Run("imports in word order", func(t *testing.T) {
		f := newFacade(t)
		f.LoadLegacyConfirmations(map[string]domain.LemmaMapping{
			"10": {Lemma: "j", Msa: "x"},
			"2":  {Lemma: "b", Msa: "x"},
			"9":  {Lemma: "i", Msa: "x"},
			"x":  {Lemma: "z", Msa: "x"},
		})
		var ids []string
		for _, a := range f.Store().Set().Annotations {
			ids = append(ids, a.ID)
		}
		if want := []string{"lemma-2", "lemma-9", "lemma-10"}; !slices.Equal(ids, want) {
			t.Errorf("ids = %v, want %v", ids, want)
		}
	})

	t.Run("negative keys and empty lemmas are skipped", func(t *testing.T) {
		f := newFacade(t)
		result := f.LoadLegacyConfirmations(map[string]domain.LemmaMapping{
			"-4": {Lemma: "a", Msa: "x"},
			"5":  {Lemma: "", Msa: "x"},
			" 6": {Lemma: "d", Msa: "x"},
		})
		if result.Imported != 1 || len(result.Skipped) != 2 {
			t.Errorf("result = %+v", result)
		}
		if !f.IsLemmaConfirmed(6) {
			t.Error("word 6 should be confirmed")
		}
	})
}
