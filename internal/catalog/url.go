package catalog

import "net/url"

// resolveURL resolves an entry name against the directory page it was
// discovered on. Unparseable input falls back to plain concatenation so a
// record is never dropped over URL syntax.
func resolveURL(dirURL, name string) string {
	base, err := url.Parse(dirURL)
	if err != nil {
		return dirURL + name
	}
	ref, err := url.Parse(name)
	if err != nil {
		return dirURL + name
	}
	return base.ResolveReference(ref).String()
}
