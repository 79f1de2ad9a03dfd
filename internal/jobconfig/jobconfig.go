// Package jobconfig reads the git checkout sources out of a Jenkins job
// configuration document (config.xml).
package jobconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

const gitSCMClass = "hudson.plugins.git.GitSCM"

var (
	// Jobs using the multiple-SCMs plugin list each git checkout as a child
	// element named after the SCM class.
	multiSCMExpr = xpath.MustCompile(`//` + gitSCMClass)
	// Single-checkout jobs carry one <scm> element tagged through its class.
	singleSCMExpr = xpath.MustCompile(`//scm[@class='` + gitSCMClass + `']`)

	branchNameExpr = xpath.MustCompile(`.//hudson.plugins.git.BranchSpec/name`)
	remoteURLExpr  = xpath.MustCompile(`.//hudson.plugins.git.UserRemoteConfig/url`)
)

// Jenkins writes config.xml with an XML 1.1 declaration, which encoding/xml
// refuses. The documents do not use any 1.1-only constructs.
var xmlVersionDecl = regexp.MustCompile(`^(\s*<\?xml\s+version\s*=\s*)(['"])1\.1(['"])`)

// Source is a git checkout declared by a job: the remote it clones and the
// branch it builds.
type Source struct {
	URL    string
	Branch string
}

// Parse returns the git sources declared in doc. Only the first branch spec
// and the first remote of each checkout are used; checkouts lacking either
// are skipped.
func Parse(doc string) ([]Source, error) {
	doc = xmlVersionDecl.ReplaceAllString(doc, "${1}${2}1.0${3}")
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing job config: %w", err)
	}

	scms := xmlquery.QuerySelectorAll(root, multiSCMExpr)
	scms = append(scms, xmlquery.QuerySelectorAll(root, singleSCMExpr)...)

	var sources []Source
	for _, scm := range scms {
		branch := firstText(scm, branchNameExpr)
		url := firstText(scm, remoteURLExpr)
		if branch == "" || url == "" {
			continue
		}
		sources = append(sources, Source{URL: url, Branch: branch})
	}
	return sources, nil
}

func firstText(n *xmlquery.Node, expr *xpath.Expr) string {
	found := xmlquery.QuerySelector(n, expr)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.InnerText())
}
