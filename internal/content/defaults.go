package content

// Default returns the built-in catalog used when no content file is configured.
func Default() *Catalog {
	return &Catalog{
		Owner:    "Bang Seungwan",
		Headline: "Web Designer & Publisher",
		Tagline: `From brand identity to web publishing. Obsessed with speed,
detail and conversion.`,
		Email:    "hello@okbk.dev",
		Phone:    "010-0000-0000",
		Resume:   "/portfolio.pdf",
		Portrait: "https://images.unsplash.com/photo-1603575449299-b5d26f57bb43?q=80&w=1600&auto=format&fit=crop",
		About: []string{
			"Brand guides, UI component design and responsive publishing, end to end.",
			"Speed and accessibility first: Lighthouse 95+ as the baseline.",
			"Requirements, wireframe, prototype, QA, release: a repeatable flow.",
			"Daily drivers: Tailwind, Figma, Notion, Linear.",
		},
		Skills: []Skill{
			{Name: "Photoshop", Level: 90},
			{Name: "Illustrator", Level: 65},
			{Name: "HTML/CSS", Level: 95},
			{Name: "JavaScript", Level: 85},
			{Name: "React/Next", Level: 80},
			{Name: "TailwindCSS", Level: 90},
			{Name: "Figma", Level: 80},
			{Name: "Publisher", Level: 95},
		},
		Projects: []Project{
			{
				ID:       1,
				Title:    "Brand site redesign",
				Subtitle: "UI/UX · Publishing",
				Cover:    "https://images.unsplash.com/photo-1498050108023-c5249f4df085?q=80&w=1600&auto=format&fit=crop",
				Tags:     []string{"Figma", "HTML", "CSS", "GSAP"},
				Link:     NoLink,
				Code:     NoLink,
				Shots: []string{
					"https://images.unsplash.com/photo-1555066931-4365d14bab8c?q=80&w=1600&auto=format&fit=crop",
					"https://images.unsplash.com/photo-1587620962725-abab7fe55159?q=80&w=1600&auto=format&fit=crop",
				},
				Description: "Redefined the color and type system to match the **rebranding guide** and turned it into responsive grid components.",
				Role:        "Art direction, publishing, responsive tuning",
				Outcome:     "Conversion up 18%, page load 42% faster",
			},
			{
				ID:       2,
				Title:    "E-commerce promo landing",
				Subtitle: "Design · Interaction",
				Cover:    "https://images.unsplash.com/photo-1555580399-e0ab2402a1b3?q=80&w=1600&auto=format&fit=crop",
				Tags:     []string{"Photoshop", "Illustrator", "Tailwind", "Motion"},
				Link:     NoLink,
				Code:     NoLink,
				Shots: []string{
					"https://images.unsplash.com/photo-1581276879432-15e50529f34b?q=80&w=1600&auto=format&fit=crop",
					"https://images.unsplash.com/photo-1556157382-97eda2d62296?q=80&w=1600&auto=format&fit=crop",
				},
				Description: "One-page landing that surfaces product USPs through scroll-driven micro interactions.",
				Role:        "Key visual, 3D type, scroll animation",
				Outcome:     "Sales 2.1x during the promotion",
			},
			{
				ID:       3,
				Title:    "Portfolio template",
				Subtitle: "Go · HTMX",
				Cover:    "https://images.unsplash.com/photo-1493723843671-1d655e66ac1c?q=80&w=1600&auto=format&fit=crop",
				Tags:     []string{"Go", "Gin", "HTMX"},
				Link:     NoLink,
				Code:     NoLink,
				Shots: []string{
					"https://images.unsplash.com/photo-1551281044-8a5afc6df34b?q=80&w=1600&auto=format&fit=crop",
					"https://images.unsplash.com/photo-1484480974693-6ca0a78fb36b?q=80&w=1600&auto=format&fit=crop",
				},
				Description: "One-page template for designers and publishers. Swap the content file and deploy.",
				Role:        "Design system, component layout",
				Outcome:     "Reused in three side projects",
			},
		},
		Links: []LinkItem{
			{Href: "mailto:hello@okbk.dev", Label: "Email", Icon: "mail"},
			{Href: "https://github.com/okbk", Label: "GitHub", Icon: "github"},
			{Href: "https://www.linkedin.com/in/okbk", Label: "LinkedIn", Icon: "linkedin"},
		},
	}
}
