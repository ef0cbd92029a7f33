// Command clipfeed monitors YouTube channels and turns new uploads into
// captioned vertical clips published to TikTok.
package main
