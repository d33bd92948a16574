package mcpserver

// DocumentFormatContract describes the canonical Org document format that
// LLM consumers should follow when creating or updating documents.
const DocumentFormatContract = `# Ansuz Document Format Contract

Every Org document stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `org
#+TITLE: Human-readable title
#+FILETAGS: :tag-one:tag-two:
#+TODO: TODO NEXT WAITING | DONE CANCELLED

Preamble prose before the first headline.

* TODO [#A] Top-level headline :work:urgent:
SCHEDULED: <2025-01-20 Mon> DEADLINE: <2025-01-24 Fri>
:PROPERTIES:
:OWNER: alice
:END:
Body text under the headline.

Use [[projects/roadmap.org][the roadmap]] to reference other documents.

** Child headline (one more star per level)
` + "```" + `

## Rules

1. **` + "`" + `#+TITLE:` + "`" + ` is required.** It is the primary display name in search,
   listings, and the graph. Keep it on the first line.
2. **File keywords come before any headline.** ` + "`" + `#+FILETAGS:` + "`" + ` wraps tags in
   colons (` + "`" + `:project-x:review:` + "`" + `). ` + "`" + `#+TODO:` + "`" + ` replaces the workflow keywords;
   names after the ` + "`" + `|` + "`" + ` bar count as done states.
3. **Headlines** start with stars at column zero, one star per level:
   ` + "`" + `* TODO [#A] Title :tag1:tag2:` + "`" + `. The TODO keyword, ` + "`" + `[#A]` + "`" + ` priority
   cookie, and trailing ` + "`" + `:tag:` + "`" + ` list are each optional.
4. **Planning lines** (` + "`" + `SCHEDULED:` + "`" + `, ` + "`" + `DEADLINE:` + "`" + `, ` + "`" + `CLOSED:` + "`" + `) go on the
   line directly under the headline, before anything else. Active
   ` + "`" + `<2025-01-20 Mon>` + "`" + ` timestamps drive the agenda; inactive
   ` + "`" + `[2025-01-20 Mon]` + "`" + ` ones do not. Times (` + "`" + `14:30` + "`" + `) and repeaters
   (` + "`" + `+1w` + "`" + `) are allowed.
5. **Property drawers** (` + "`" + `:PROPERTIES:` + "`" + ` ... ` + "`" + `:END:` + "`" + `, one ` + "`" + `:KEY: value` + "`" + `
   per line) come right after planning. Property keys MUST be in English;
   values may use any language.
6. **Clock lines** record logged work directly under the drawer, NOT inside
   a LOGBOOK drawer: ` + "`" + `CLOCK: [2025-01-18 Sat 14:00]--[2025-01-18 Sat 16:00] =>  2:00` + "`" + `.
7. **Links** use double brackets: ` + "`" + `[[target]]` + "`" + ` or ` + "`" + `[[target][description]]` + "`" + `.
   Reference other documents by vault-relative path
   (` + "`" + `[[projects/plan.org]]` + "`" + `); ` + "`" + `id:` + "`" + ` links resolve against ` + "`" + `:ID:` + "`" + ` properties.
8. **Tables** use pipes with a ` + "`" + `|---+---|` + "`" + ` separator after the header row.
   Code samples belong in ` + "`" + `#+BEGIN_SRC lang` + "`" + ` ... ` + "`" + `#+END_SRC` + "`" + ` fences.
9. **File paths** end with ` + "`" + `.org` + "`" + `, use forward slashes, and file and
   directory names MUST be in English (Latin characters).
10. **Encoding** is UTF-8 with a trailing newline. Documents are rewritten
    in canonical form (aligned tables, uppercase fences) on every save.

## Assets & Images

- Upload assets via the ` + "`" + `upload_asset` + "`" + ` tool. It returns an ` + "`" + `orgLink` + "`" + ` field ready to paste into the document body.
- Assets are stored in the shared ` + "`" + `attachments/` + "`" + ` directory (flat, no sub-folders).
- Reference in documents as ` + "`" + `[[file:attachments/diagram.png][diagram]]` + "`" + `; over HTTP the same file is served at ` + "`" + `/attachments/diagram.png` + "`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg, pdf.

## Example

` + "```" + `org
#+TITLE: Weekly review 2025-01-20
#+FILETAGS: :meeting-notes:project-x:

* TODO [#A] Ship the quarterly report :work:
SCHEDULED: <2025-01-20 Mon> DEADLINE: <2025-01-24 Fri>
:PROPERTIES:
:OWNER: alice
:END:
Draft lives in [[reports/q4.org][the Q4 report]].

** DONE Collect metrics
CLOSED: [2025-01-18 Sat 16:02]
CLOCK: [2025-01-18 Sat 14:00]--[2025-01-18 Sat 16:00] =>  2:00

| Metric | Value |
|--------+-------|
| Signups | 412 |

* Notes
#+BEGIN_SRC sql
SELECT count(*) FROM signups;
#+END_SRC

[[file:attachments/whiteboard-2025-01-20.jpg][Whiteboard photo]]
` + "```" + `
`
