// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/science-digest/internal/httputil"
	"github.com/pdiddy/science-digest/internal/logger"
	"github.com/pdiddy/science-digest/internal/syllabus"
	"github.com/pdiddy/science-digest/pkg/types"
)

// eutilsBase is the NCBI E-utilities root. Declared as a var so tests can
// substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedArticleBase prefixes a PMID to form the landing page URL.
const pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMedBackend searches PubMed review articles through the E-utilities.
type PubMedBackend struct {
	Client    *http.Client
	UserAgent string
	Email     string
	APIKey    string
	Log       *logger.Logger
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return syllabus.SourcePubMed }

// Fetch runs esearch for the newest reviews matching the keyword, then
// efetch for their records. Records without an abstract are dropped.
func (b *PubMedBackend) Fetch(ctx context.Context, topic syllabus.Topic, max int) ([]types.Paper, error) {
	ids, err := b.search(ctx, topic.Keyword, max)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	set, err := b.fetchRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	var papers []types.Paper
	for _, rec := range set.Articles {
		cit := rec.Citation
		var parts []string
		for _, a := range cit.Article.Abstract {
			if s := strings.TrimSpace(string(a)); s != "" {
				parts = append(parts, s)
			}
		}
		summary := strings.Join(parts, " ")
		pmid := strings.TrimSpace(cit.PMID)
		if summary == "" || pmid == "" {
			continue
		}

		p := paperFromTopic(topic, types.SourcePubMed)
		p.Title = strings.Join(strings.Fields(string(cit.Article.Title)), " ")
		p.Summary = summary
		p.Published = cit.Article.Journal.Issue.PubDate.year()
		p.URL = pubmedArticleBase + pmid + "/"
		papers = append(papers, p)
	}
	return papers, nil
}

func (b *PubMedBackend) search(ctx context.Context, keyword string, max int) ([]string, error) {
	params := b.baseParams()
	params.Set("term", keyword+" AND review[Filter]")
	params.Set("retmax", strconv.Itoa(max))
	params.Set("sort", "date")
	params.Set("retmode", "json")

	body, err := b.get(ctx, eutilsBase+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch: %w", err)
	}

	var out esearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return out.Result.IDList, nil
}

func (b *PubMedBackend) fetchRecords(ctx context.Context, ids []string) (pubmedArticleSet, error) {
	params := b.baseParams()
	params.Set("id", strings.Join(ids, ","))
	params.Set("rettype", "xml")
	params.Set("retmode", "xml")

	var set pubmedArticleSet
	body, err := b.get(ctx, eutilsBase+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return set, fmt.Errorf("PubMed efetch: %w", err)
	}
	if err := xml.Unmarshal(body, &set); err != nil {
		return set, fmt.Errorf("parsing efetch response: %w", err)
	}
	return set, nil
}

func (b *PubMedBackend) baseParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("tool", "science-digest")
	if b.Email != "" {
		params.Set("email", b.Email)
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}
	return params
}

func (b *PubMedBackend) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0, b.Log)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// esearch JSON structures.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// efetch XML structures.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			Title    xmlText   `xml:"ArticleTitle"`
			Abstract []xmlText `xml:"Abstract>AbstractText"`
			Journal  struct {
				Issue struct {
					PubDate pubDate `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

type pubDate struct {
	Year        string `xml:"Year"`
	MedlineDate string `xml:"MedlineDate"`
}

// year returns the four-digit year, reading it from the free-form
// MedlineDate ("2023 Jan-Feb") when no Year element is present.
func (d pubDate) year() string {
	if y := strings.TrimSpace(d.Year); y != "" {
		return y
	}
	md := strings.TrimSpace(d.MedlineDate)
	if len(md) >= 4 {
		return md[:4]
	}
	return md
}

// xmlText collects all character data inside an element, flattening
// inline markup such as <i>, <sup> and <sub>.
type xmlText string

func (t *xmlText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*t = xmlText(b.String())
				return nil
			}
			depth--
		}
	}
}
