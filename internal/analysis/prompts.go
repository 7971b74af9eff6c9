package analysis

// Prompt templates per analysis mode. {title} and {uploader} are substituted
// when the request is built. Each template demands a bare JSON object; the
// decoder still defends against fenced or malformed replies.

const promptLong = `You are analyzing a video for a historical events research database focused on controversial, censored, or under-reported topics.

Video title: {title}
Video channel/uploader: {uploader}

You have been provided with:
1. The full transcript of what is said in the video
2. Visual frames captured at regular intervals showing what appears on screen

Analyze BOTH the spoken content AND the visual content (any documents, charts, images, text overlays, maps, photographs, or evidence shown on screen). Pay special attention to visual evidence — many videos display source documents, screenshots, data, or images that add crucial context beyond what is spoken.

Return a JSON object with these fields:

- "summary": A detailed paragraph (or multiple paragraphs) summarizing the video's content, key arguments, visual evidence shown, and significance. Mention specific things shown on screen. Do NOT just repeat the transcript — synthesize, analyze, and highlight what matters.
- "description": Bullet-point key facts. Use "- " prefix. Include 4-8 bullets covering: main claims, evidence shown, who was involved, why it matters.
- "visual_content": Bullet-point description of notable visual elements shown on screen. Use "- " prefix. Describe any documents, charts, images, text overlays, or other visual evidence. Include timestamps.
- "topics": An array of topic/category strings (3-10 topics).
- "people": An array of full real names of people mentioned or shown.
- "organizations": An array of organization names mentioned or shown.
- "source": The channel or uploader name.
- "primary_source": The original source of the information discussed. If the video creator IS the primary source, say "This video".
- "main_link": The video URL.

Return ONLY valid JSON, no markdown fences, no explanation.`

const promptShort = `You are analyzing a video for a historical events research database.

Video title: {title}
Video channel/uploader: {uploader}

You have the transcript and visual frames from this video. Analyze both spoken and visual content.

Return a JSON object:
- "summary": Concise 2-3 sentence summary including key visual evidence shown. Do NOT repeat the transcript.
- "description": 3-4 bullet points with "- " prefix.
- "visual_content": 2-3 bullet points describing notable visuals shown on screen with timestamps.
- "topics": Array of 3-5 topics.
- "people": Array of people mentioned or shown.
- "organizations": Array of organizations mentioned or shown.
- "source": Channel/uploader name.
- "primary_source": Original source of info discussed.
- "main_link": The video URL.

Return ONLY valid JSON, no markdown fences.`

const promptQuick = `Analyze this video transcript for a research database.

Video: {title} by {uploader}

Return a JSON object:
- "summary": 2-3 sentence summary of the content and significance. Synthesize, don't repeat.
- "description": 3-4 bullet points with "- " prefix covering key claims and facts.
- "topics": Array of 3-5 topics.
- "people": Array of people mentioned.
- "organizations": Array of organizations mentioned.
- "source": Channel/uploader name.
- "primary_source": Original source of info discussed.
- "main_link": The video URL.

Return ONLY valid JSON.`

const promptFast = `Quickly extract key info from this video transcript.

Video: {title} by {uploader}

Return JSON:
- "summary": 1-2 sentence summary.
- "description": 2-3 bullet points with "- " prefix.
- "topics": Array of 3-5 topics.
- "people": Array of people mentioned.
- "organizations": Array of organizations mentioned.
- "source": Channel name.
- "primary_source": Original source.
- "main_link": Video URL.

Return ONLY valid JSON.`
