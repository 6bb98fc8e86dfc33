package tasks

import (
	"strings"
	"testing"
)

const csvHeader = "url,titulo,hierarquia,destino,tipo,visibilidade,colunas,menu,categoria\n"

func TestReadCSV_ParsesRows(t *testing.T) {
	input := csvHeader +
		`https://site.df.gov.br/creches,Creches,Raiz > Educação Infantil,creches,conteudo,publica,1,Creches,educacao` + "\n" +
		`https://site.df.gov.br/editais,Editais,Raiz > Documentos,editais,conteudo,publica,1,, ` + "\n"

	list, err := readCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readCSV() unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(list))
	}
	first := list[0]
	if first.SourceURL != "https://site.df.gov.br/creches" {
		t.Fatalf("SourceURL = %q", first.SourceURL)
	}
	if first.Title != "Creches" {
		t.Fatalf("Title = %q, want Creches", first.Title)
	}
	if len(first.Hierarchy) != 1 || first.Hierarchy[0] != "Educação Infantil" {
		t.Fatalf("Hierarchy = %v, want [Educação Infantil] (root marker dropped)", first.Hierarchy)
	}
	if first.DestinationIdentifier != "creches" {
		t.Fatalf("DestinationIdentifier = %q, want creches", first.DestinationIdentifier)
	}
}

func TestReadCSV_SkipsBlankLines(t *testing.T) {
	input := csvHeader +
		",,,,,,,,\n" +
		`https://site.df.gov.br/p,Página,Raiz > A,p,conteudo,publica,1,,` + "\n"

	list, err := readCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readCSV() unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(list))
	}
}

func TestReadCSV_RejectsMissingURL(t *testing.T) {
	input := csvHeader + `,Sem URL,Raiz > A,x,conteudo,publica,1,,` + "\n"
	_, err := readCSV(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("readCSV() error = %v, want line 2 missing URL", err)
	}
}

func TestReadCSV_RejectsRelativeURL(t *testing.T) {
	input := csvHeader + `/pagina-relativa,Título,Raiz > A,x,conteudo,publica,1,,` + "\n"
	_, err := readCSV(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "not absolute") {
		t.Fatalf("readCSV() error = %v, want not absolute", err)
	}
}

func TestReadCSV_RejectsEmptyFile(t *testing.T) {
	_, err := readCSV(strings.NewReader(csvHeader))
	if err == nil || !strings.Contains(err.Error(), "no tasks") {
		t.Fatalf("readCSV() error = %v, want no tasks", err)
	}
}
