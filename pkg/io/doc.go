// Package io reads and writes canvas state files.
//
// A state file is the same JSON document a share token wraps, indented for
// humans:
//
//	{
//	  "width": 1600,
//	  "height": 900,
//	  "template": "classic",
//	  "bgTemplateURL": "/templates/paper.jpg",
//	  "layers": [
//	    {"id": "text_1a2b3c4", "name": "Text", "type": "text", "x": 0.5, "y": 0.1,
//	     "text": "top text", "fontSize": 72, "strokePx": 12, "allCaps": true}
//	  ]
//	}
//
// Missing layer attributes take the editor defaults and the canvas size is
// floored on import, exactly as when opening a share link. Session-local
// "blob:" refs are not written, because no later process could resolve them.
//
// # Sources
//
// Commands accept a state in three spellings: a path to a state file, a share
// link, or a bare token. [ReadSource] tells them apart.
package io
