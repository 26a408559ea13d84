package bookparser

import "encoding/xml"

// container is META-INF/container.xml: points at the package document.
type container struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage is the subset of the OPF package document this parser needs: metadata, the id->href manifest, and the
// spine's reading order.
type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfManifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// spineHrefs returns the href of each spine item, in reading order,
// resolved through the manifest's id->href mapping. Spine entries whose
// idref has no manifest item are skipped.
func (p *opfPackage) spineHrefs() []string {
	byID := make(map[string]string, len(p.Manifest.Items))
	for _, item := range p.Manifest.Items {
		byID[item.ID] = item.Href
	}
	hrefs := make([]string, 0, len(p.Spine.ItemRefs))
	for _, ref := range p.Spine.ItemRefs {
		if href, ok := byID[ref.IDRef]; ok {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs
}
