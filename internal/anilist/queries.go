package anilist

const userQuery = `query ($name: String) {
  User(name: $name) {
    id
    name
    avatar {
      large
    }
  }
}`

const listQuery = `query ($userId: Int) {
  MediaListCollection(userId: $userId, type: ANIME) {
    lists {
      name
      entries {
        ...mediaListEntry
      }
    }
  }
}

fragment mediaListEntry on MediaList {
  scoreRaw: score(format: POINT_100)
  startedAt {
    year
    month
    day
  }
  completedAt {
    year
    month
    day
  }
  media {
    id
    title {
      userPreferred
      english
      romaji
      native
    }
    description(asHtml: true)
    coverImage {
      large
    }
    averageScore
  }
}`
