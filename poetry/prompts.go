package poetry

const criticSystemPrompt = `You are a thoughtful literary critic.`

const groupingPrompt = `I'll give you a collection of short poems.
Group them into 3-4 thematic categories based on tone and subtext.
Name each category and describe what connects them.

Poems:
%s`

const subtextPrompt = `You're a poet's inner voice.
For each poem, write one sentence that captures what the poet felt but didn't say out loud.

Poems:
%s`

const favoritesPrompt = `Read all short poems below and pick your top 3 favorites.
Rank them 1 to 3 and explain why you chose each one.

Poems:
%s`
