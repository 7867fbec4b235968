package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/relkit/relkit/pkg/domain"
)

// Pep440 implements the PEP 440 convention for canonical version strings:
// [N!]N(.N)*[{a|b|rc}N][.postN][.devN]. Non-canonical spellings (v-prefix,
// "alpha", "-post", local segments) are rejected, matching the upstream
// canonical-form check.
type Pep440 struct{}

var pep440Canonical = regexp.MustCompile(
	`^(?:([1-9][0-9]*)!)?(0|[1-9][0-9]*)((?:\.(?:0|[1-9][0-9]*))*)` +
		`(?:(a|b|rc)(0|[1-9][0-9]*))?` +
		`(?:\.post(0|[1-9][0-9]*))?` +
		`(?:\.dev(0|[1-9][0-9]*))?$`)

type pep440Version struct {
	epoch   int
	release []int
	pre     string // "", "a", "b" or "rc"
	preN    int
	hasPost bool
	postN   int
	hasDev  bool
	devN    int
}

func parsePep440(v string) (pep440Version, error) {
	m := pep440Canonical.FindStringSubmatch(v)
	if m == nil {
		return pep440Version{}, &domain.VersionFormatError{Scheme: "pep440", Version: v}
	}
	var p pep440Version
	if m[1] != "" {
		p.epoch, _ = strconv.Atoi(m[1])
	}
	first, _ := strconv.Atoi(m[2])
	p.release = []int{first}
	for _, seg := range strings.Split(m[3], ".") {
		if seg == "" {
			continue
		}
		n, _ := strconv.Atoi(seg)
		p.release = append(p.release, n)
	}
	if m[4] != "" {
		p.pre = m[4]
		p.preN, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		p.hasPost = true
		p.postN, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		p.hasDev = true
		p.devN, _ = strconv.Atoi(m[7])
	}
	return p, nil
}

func (p pep440Version) String() string {
	var b strings.Builder
	if p.epoch > 0 {
		fmt.Fprintf(&b, "%d!", p.epoch)
	}
	segs := make([]string, len(p.release))
	for i, n := range p.release {
		segs[i] = strconv.Itoa(n)
	}
	b.WriteString(strings.Join(segs, "."))
	if p.pre != "" {
		fmt.Fprintf(&b, "%s%d", p.pre, p.preN)
	}
	if p.hasPost {
		fmt.Fprintf(&b, ".post%d", p.postN)
	}
	if p.hasDev {
		fmt.Fprintf(&b, ".dev%d", p.devN)
	}
	return b.String()
}

func (Pep440) Name() string { return "pep440" }

func (Pep440) Validate(v string) error {
	_, err := parsePep440(v)
	return err
}

func (Pep440) Bump(base string, kind domain.BumpKind) (string, error) {
	p, err := parsePep440(base)
	if err != nil {
		return "", err
	}
	r := p.release
	for len(r) < 3 {
		r = append(r, 0)
	}
	next := pep440Version{epoch: p.epoch}
	switch kind {
	case domain.BumpMajor:
		next.release = []int{r[0] + 1, 0, 0}
	case domain.BumpMinor:
		next.release = []int{r[0], r[1] + 1, 0}
	case domain.BumpPatch:
		next.release = []int{r[0], r[1], r[2] + 1}
	case domain.BumpPrerelease:
		if p.pre != "" {
			next.release = append([]int(nil), p.release...)
			next.pre = p.pre
			next.preN = p.preN + 1
		} else {
			next.release = []int{r[0], r[1], r[2] + 1}
			next.pre = "rc"
			next.preN = 1
		}
	default:
		return "", &domain.VersionSchemeError{Scheme: "pep440", Kind: kind}
	}
	return next.String(), nil
}

func (Pep440) Compare(a, b string) (int, error) {
	pa, err := parsePep440(a)
	if err != nil {
		return 0, err
	}
	pb, err := parsePep440(b)
	if err != nil {
		return 0, err
	}
	return comparePep440(pa, pb), nil
}

var pep440PreRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// comparePep440 orders two parsed versions per the PEP 440 rules: epoch,
// zero-padded release, then the dev < pre < final < post staging, with a dev
// segment sorting a release below its own pre/post variants.
func comparePep440(a, b pep440Version) int {
	if a.epoch != b.epoch {
		return cmpInt(a.epoch, b.epoch)
	}
	n := max(len(a.release), len(b.release))
	for i := 0; i < n; i++ {
		if c := cmpInt(releaseSeg(a.release, i), releaseSeg(b.release, i)); c != 0 {
			return c
		}
	}
	if c := cmpKey(preKey(a), preKey(b)); c != 0 {
		return c
	}
	if c := cmpKey(postKey(a), postKey(b)); c != 0 {
		return c
	}
	return cmpKey(devKey(a), devKey(b))
}

func releaseSeg(r []int, i int) int {
	if i < len(r) {
		return r[i]
	}
	return 0
}

// preKey: a dev release with no pre segment sorts below any pre release
// (1.0.dev1 < 1.0a1); a final or post release sorts above all of them.
func preKey(p pep440Version) [3]int {
	switch {
	case p.pre != "":
		return [3]int{0, pep440PreRank[p.pre], p.preN}
	case !p.hasPost && p.hasDev:
		return [3]int{-1, 0, 0}
	default:
		return [3]int{1, 0, 0}
	}
}

func postKey(p pep440Version) [3]int {
	if p.hasPost {
		return [3]int{0, p.postN, 0}
	}
	return [3]int{-1, 0, 0}
}

func devKey(p pep440Version) [3]int {
	if p.hasDev {
		return [3]int{0, p.devN, 0}
	}
	return [3]int{1, 0, 0}
}

func cmpKey(a, b [3]int) int {
	for i := range a {
		if c := cmpInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
