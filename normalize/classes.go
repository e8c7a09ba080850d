package normalize

// Semantic class names carried by the normalized markup. Stylesheets and
// renderers rely on their meaning.
const (
	ClassArticle       = "article"
	ClassTitle         = "title"
	ClassWebNavigation = "web-navigation"
	ClassInternal      = "internal"
	ClassExternal      = "external"
	ClassFootnote      = "footnote"
	ClassSpoiler       = "spoiler"
)
