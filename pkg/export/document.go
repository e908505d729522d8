package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Section is a titled table inside a document.
type Section struct {
	Title string
	Data  Dataset
}

// Document is a printable report made of one or more sections.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

func (d Document) validate() error {
	if len(d.Sections) == 0 {
		return fmt.Errorf("document requires at least one section")
	}
	for _, section := range d.Sections {
		if len(section.Data.Headers) == 0 {
			return fmt.Errorf("section %q requires at least one header", section.Title)
		}
	}
	return nil
}
