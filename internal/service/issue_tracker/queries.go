package issue_tracker

const findIssueQuery = `
query FindIssue($owner: String!, $name: String!, $number: Int!) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) {
      ...trackedIssue
    }
  }
}
` + trackedIssueFragment

const listIssuesQuery = `
query ListIssues($owner: String!, $name: String!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    issues(first: $first, after: $after, orderBy: {field: CREATED_AT, direction: ASC}) {
      totalCount
      pageInfo {
        endCursor
        hasNextPage
      }
      nodes {
        ...trackedIssue
      }
    }
  }
}
` + trackedIssueFragment

const trackedIssueFragment = `
fragment trackedIssue on Issue {
  id
  number
  state
  closedAt
  labels(first: 100) {
    nodes {
      name
      description
    }
  }
  projectCards(first: 20) {
    nodes {
      id
      project {
        name
      }
      column {
        id
        name
      }
    }
  }
}
`

const findProjectQuery = `
query FindProject($owner: String!, $name: String!, $search: String!) {
  repository(owner: $owner, name: $name) {
    projects(first: 20, search: $search) {
      nodes {
        id
        name
        columns(first: 20) {
          nodes {
            id
            name
          }
        }
      }
    }
  }
}
`

const addProjectCardMutation = `
mutation AddProjectCard($contentId: ID!, $columnId: ID!) {
  addProjectCard(input: {contentId: $contentId, projectColumnId: $columnId}) {
    cardEdge {
      node {
        id
      }
    }
  }
}
`

const moveProjectCardMutation = `
mutation MoveProjectCard($cardId: ID!, $columnId: ID!) {
  moveProjectCard(input: {cardId: $cardId, columnId: $columnId}) {
    cardEdge {
      node {
        id
      }
    }
  }
}
`

const deleteProjectCardMutation = `
mutation DeleteProjectCard($cardId: ID!) {
  deleteProjectCard(input: {cardId: $cardId}) {
    deletedCardId
  }
}
`
