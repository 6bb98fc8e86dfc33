package folders

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"secretaria de educação", "Secretaria de Educação"},
		{"DE ONDE VIEMOS", "De Onde Viemos"},
		{"programas do gdf", "Programas do GDF"},
		{"atendimento sei df", "Atendimento SEI DF"},
		{"escola em casa", "Escola em Casa"},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Educação Infantil", "Educacao Infantil"},
		{`Editais 2024/2025`, "Editais 2024-2025"},
		{"Nome   com    espaços", "Nome com espacos"},
		{"Terminando em ponto.", "Terminando em ponto"},
		{"", "pasta_sem_nome"},
		{"con", "pasta_sem_nome"},
		{"///", "pasta_sem_nome"},
	}
	for _, tt := range tests {
		if got := CleanName(tt.in, maxJournalFolderName); got != tt.want {
			t.Fatalf("CleanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanName_CapsLengthWithEllipsis(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := CleanName(long, maxJournalFolderName)
	if len(got) > maxJournalFolderName {
		t.Fatalf("len(CleanName()) = %d, want at most %d", len(got), maxJournalFolderName)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("CleanName() = %q, want truncation marker suffix", got)
	}
	if got != strings.Repeat("a", maxJournalFolderName-3)+"..." {
		t.Fatalf("CleanName() = %q, want %d a's plus marker", got, maxJournalFolderName-3)
	}
}

func TestComparisonKey_FoldsCaseAndAccents(t *testing.T) {
	if ComparisonKey("Educação") != ComparisonKey("educacao") {
		t.Fatalf("ComparisonKey(%q) = %q, ComparisonKey(%q) = %q, want equal",
			"Educação", ComparisonKey("Educação"), "educacao", ComparisonKey("educacao"))
	}
	if ComparisonKey("Esportes") == ComparisonKey("Cultura") {
		t.Fatal("distinct names must not collide")
	}
}

func TestSplitHierarchy(t *testing.T) {
	got := SplitHierarchy("Raiz > Secretaria > Educação Infantil > Creches")
	want := []string{"Secretaria", "Educação Infantil", "Creches"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitHierarchy() = %v, want %v", got, want)
	}
}

func TestSplitHierarchy_DropsHierarchyMarkerAccentInsensitively(t *testing.T) {
	got := SplitHierarchy("HIERARQUIA > raíz > Apenas Este")
	if len(got) != 1 || got[0] != "Apenas Este" {
		t.Fatalf("SplitHierarchy() = %v, want [Apenas Este]", got)
	}
}

func TestSplitHierarchy_Empty(t *testing.T) {
	if got := SplitHierarchy(" > > "); got != nil {
		t.Fatalf("SplitHierarchy() = %v, want nil", got)
	}
}
